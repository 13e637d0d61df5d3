package types

import "cyber-assist-backend/internal/intake"

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	System    string `json:"system,omitempty"`
}

// ChatResponse carries either an ordinary model reply or the outbound
// messages of an intake transition, in order. Reply joins Messages for
// clients that only render one bubble.
type ChatResponse struct {
	SessionID string           `json:"sessionId"`
	Reply     string           `json:"reply"`
	Messages  []intake.Message `json:"messages,omitempty"`
	Action    string           `json:"action,omitempty"`
	Intake    *intake.Status   `json:"intake,omitempty"`
	ReportID  string           `json:"reportId,omitempty"`
}

// ChoiceRequest is a quick-choice picker answer (role, date, time, type).
type ChoiceRequest struct {
	Value string `json:"value"`
}

// FileInfo describes one uploaded file back to the chat UI.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Kind string `json:"kind"` // image | file
	Key  string `json:"key,omitempty"`
}

type AttachmentsResponse struct {
	SessionID string         `json:"sessionId"`
	Recorded  bool           `json:"recorded"`
	Files     []FileInfo     `json:"files"`
	Intake    *intake.Status `json:"intake"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// WSInbound is one client event on the websocket channel.
type WSInbound struct {
	Type  string       `json:"type"` // begin | answer | choice | attachments | status
	Text  string       `json:"text,omitempty"`
	Files []WSFileMeta `json:"files,omitempty"`
}

type WSFileMeta struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
}

type WSOutbound struct {
	Type     string           `json:"type"` // messages | status | error
	Messages []intake.Message `json:"messages,omitempty"`
	Intake   *intake.Status   `json:"intake,omitempty"`
	ReportID string           `json:"reportId,omitempty"`
	Recorded bool             `json:"recorded,omitempty"`
	Error    string           `json:"error,omitempty"`
}
