package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cyber-assist-backend/internal/assistant"
	"cyber-assist-backend/internal/intake"
	"cyber-assist-backend/internal/store"
	"cyber-assist-backend/internal/types"
)

type eventKind string

const (
	eventBegin       eventKind = "begin"
	eventAnswer      eventKind = "answer"
	eventChoice      eventKind = "choice"
	eventAttachments eventKind = "attachments"
)

type event struct {
	kind  eventKind
	text  string
	files []intake.Attachment
}

type applied struct {
	intake.Result
	Status   intake.Status
	ReportID string
}

// apply runs one event against the session's intake state. Transitions for a
// session run one at a time under the store's session lock.
func (s *Server) apply(ctx context.Context, sid string, ev event) applied {
	var out applied
	s.store.WithIntake(sid, func(st *intake.State) {
		before := st.Phase
		switch ev.kind {
		case eventBegin:
			if st.Active() {
				log.Printf("[intake] %s: discarding report at step %d", sid, st.Step)
			}
			out.Result = s.machine.Begin(st)
		case eventAnswer:
			out.Result = s.machine.SubmitAnswer(st, ev.text)
		case eventChoice:
			out.Result = s.machine.SubmitChoice(st, ev.text)
		case eventAttachments:
			out.Result = s.machine.SubmitAttachments(st, ev.files)
		}
		out.Status = s.machine.Status(st)
		if out.Handled {
			log.Printf("[intake] %s %s: %s -> %s (step %d/%d, evidence %d)",
				sid, ev.kind, before, st.Phase, out.Status.Step, out.Status.Total, out.Status.Evidence)
		}
	})
	if out.Report != nil {
		out.ReportID = s.saveReport(ctx, sid, out.Report)
	}
	return out
}

// saveReport hands a completed report to the sink. Failures are logged only;
// the chat has already shown the payload.
func (s *Server) saveReport(ctx context.Context, sid string, r *intake.Report) string {
	if s.reports == nil {
		return ""
	}
	body, err := r.MarshalJSON()
	if err != nil {
		log.Printf("[report] %s: encode failed: %v", sid, err)
		return ""
	}
	rec := store.NewReportRecord(sid, body, len(r.Evidence))
	if err := s.reports.SaveReport(ctx, rec); err != nil {
		log.Printf("[report] %s: save failed: %v", sid, err)
		return ""
	}
	log.Printf("[report] %s: saved %s with %d evidence file(s)", sid, rec.ID, rec.EvidenceCount)
	return rec.ID
}

// chatResponse records the outbound messages in the session history and shapes them for the client.
func (s *Server) chatResponse(sid string, action assistant.Action, out applied) types.ChatResponse {
	texts := make([]string, 0, len(out.Messages))
	for _, m := range out.Messages {
		s.store.Append(sid, store.Message{Role: assistant.RoleAssistant, Content: m.Text})
		texts = append(texts, m.Text)
	}
	status := out.Status
	return types.ChatResponse{
		SessionID: sid,
		Reply:     strings.Join(texts, "\n\n"),
		Messages:  out.Messages,
		Action:    string(action),
		Intake:    &status,
		ReportID:  out.ReportID,
	}
}

func (s *Server) status(sid string) intake.Status {
	st := s.store.Intake(sid)
	return s.machine.Status(&st)
}

// POST /api/report/start
func (s *Server) handleReportStart(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w)
	out := s.apply(r.Context(), sid, event{kind: eventBegin})
	s.writeJSON(w, http.StatusOK, s.chatResponse(sid, assistant.ActionFileReport, out))
}

// POST /api/report/choice {value}
// Outside the questioning phase the choice is ignored and only the status is returned.
func (s *Server) handleReportChoice(w http.ResponseWriter, r *http.Request) {
	var req types.ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := getOrCreateSessionID(r, w)
	s.writeJSON(w, http.StatusOK, s.choose(r.Context(), sid, req.Value))
}

// choose applies a quick-choice value; a handled choice joins the history as a user turn.
func (s *Server) choose(ctx context.Context, sid, value string) types.ChatResponse {
	out := s.apply(ctx, sid, event{kind: eventChoice, text: value})
	if out.Handled {
		s.store.Append(sid, store.Message{Role: assistant.RoleUser, Content: value})
	}
	return s.chatResponse(sid, assistant.ActionNone, out)
}

// POST /api/report/attachments (multipart, field "files")
func (s *Server) handleReportAttachments(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	if r.ContentLength > maxBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", maxBytes>>20))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", maxBytes>>20))
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one file is required (field 'files')")
		return
	}
	sid := getOrCreateSessionID(r, w)

	files := make([]intake.Attachment, 0, len(headers))
	for _, h := range headers {
		files = append(files, intake.Attachment{Name: h.Filename, Size: h.Size, MimeType: h.Header.Get("Content-Type")})
	}
	out := s.apply(r.Context(), sid, event{kind: eventAttachments, files: files})

	infos := make([]types.FileInfo, 0, len(headers))
	for i, h := range headers {
		info := types.FileInfo{Name: files[i].Name, Size: files[i].Size, Kind: fileKind(files[i].MimeType)}
		// only evidence-phase files are kept; others are conversational only
		if out.Handled && s.evidence != nil {
			info.Key = s.uploadEvidence(r.Context(), sid, h)
		}
		infos = append(infos, info)
	}
	status := out.Status
	s.writeJSON(w, http.StatusOK, types.AttachmentsResponse{
		SessionID: sid,
		Recorded:  out.Handled,
		Files:     infos,
		Intake:    &status,
	})
}

func (s *Server) uploadEvidence(ctx context.Context, sid string, h *multipart.FileHeader) string {
	f, err := h.Open()
	if err != nil {
		log.Printf("[report] %s: open %s: %v", sid, h.Filename, err)
		return ""
	}
	defer f.Close()
	key, err := s.evidence.Put(ctx, sid, h.Filename, h.Header.Get("Content-Type"), f, h.Size)
	if err != nil {
		log.Printf("[report] %s: evidence upload failed: %v", sid, err)
		return ""
	}
	return key
}

func fileKind(mimeType string) string {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return "image"
	}
	return "file"
}

// GET /api/report/status
func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w)
	s.writeJSON(w, http.StatusOK, s.status(sid))
}

// GET /api/reports/{id}
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.writeError(w, http.StatusNotFound, "report storage not configured")
		return
	}
	rec, err := s.reports.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("[report] get failed: %v", err)
		s.writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	if rec == nil {
		s.writeError(w, http.StatusNotFound, "report not found")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}
