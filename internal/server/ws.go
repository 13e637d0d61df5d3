package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"cyber-assist-backend/internal/intake"
	"cyber-assist-backend/internal/types"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingEvery  = (wsPongWait * 9) / 10
	wsMaxMessage = 1 << 20
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// GET /api/ws
// Each inbound event is applied to completion before the next frame is read,
// so the channel preserves arrival order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w)
	conn, err := wsUpgrader.Upgrade(w, r, w.Header())
	if err != nil {
		log.Printf("[ws] %s: upgrade failed: %v", sid, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeWait := s.wsWriteWait
	writeCh := make(chan types.WSOutbound, 16)
	writerDone := make(chan struct{})
	// A failed write ends the session: cancel unblocks pushWS and closing the
	// connection unblocks the pending read.
	go func() {
		defer close(writerDone)
		defer conn.Close()
		defer cancel()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	status := s.status(sid)
	hello := types.WSOutbound{Type: "status", Intake: &status}
	if len(s.store.Get(sid)) == 0 {
		hello.Messages = []intake.Message{{Role: intake.RoleAssistant, Text: s.prompt.Greeting}}
	}
	pushWS(ctx, writeCh, hello)

	for {
		var in types.WSInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] %s: read failed: %v", sid, err)
			}
			break
		}
		if ctx.Err() != nil {
			break
		}
		pushWS(ctx, writeCh, s.handleWSEvent(ctx, sid, in))
	}
	cancel()
	<-writerDone
}

func (s *Server) handleWSEvent(ctx context.Context, sid string, in types.WSInbound) types.WSOutbound {
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "begin":
		out := s.apply(ctx, sid, event{kind: eventBegin})
		resp := s.chatResponse(sid, "", out)
		return types.WSOutbound{Type: "messages", Messages: resp.Messages, Intake: resp.Intake}
	case "answer":
		if strings.TrimSpace(in.Text) == "" {
			return types.WSOutbound{Type: "error", Error: "text is required"}
		}
		resp := s.converse(ctx, sid, in.Text)
		msgs := resp.Messages
		if len(msgs) == 0 {
			msgs = []intake.Message{{Role: intake.RoleAssistant, Text: resp.Reply}}
		}
		return types.WSOutbound{Type: "messages", Messages: msgs, Intake: resp.Intake, ReportID: resp.ReportID}
	case "choice":
		resp := s.choose(ctx, sid, in.Text)
		return types.WSOutbound{Type: "messages", Messages: resp.Messages, Intake: resp.Intake}
	case "attachments":
		files := make([]intake.Attachment, 0, len(in.Files))
		for _, f := range in.Files {
			files = append(files, intake.Attachment{Name: f.Name, Size: f.Size, MimeType: f.MimeType})
		}
		out := s.apply(ctx, sid, event{kind: eventAttachments, files: files})
		status := out.Status
		return types.WSOutbound{Type: "status", Intake: &status, Recorded: out.Handled}
	case "status":
		status := s.status(sid)
		return types.WSOutbound{Type: "status", Intake: &status}
	}
	return types.WSOutbound{Type: "error", Error: "unknown event type " + in.Type}
}

func pushWS(ctx context.Context, ch chan<- types.WSOutbound, out types.WSOutbound) {
	select {
	case <-ctx.Done():
	case ch <- out:
	}
}
