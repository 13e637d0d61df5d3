package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cyber-assist-backend/internal/assistant"
	"cyber-assist-backend/internal/config"
	"cyber-assist-backend/internal/db"
	"cyber-assist-backend/internal/evidence"
	"cyber-assist-backend/internal/intake"
	"cyber-assist-backend/internal/store"
	"cyber-assist-backend/internal/types"
)

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	store    *store.MemoryStore
	machine  *intake.Machine
	llm      assistant.Responder
	prompt   *assistant.PromptSpec
	database *db.DB
	reports  store.ReportSink
	evidence evidence.Store

	wsWriteWait time.Duration
}

// Deps are the collaborators a Server drives. Nil Store and Machine get defaults;
// nil Reports and Evidence disable report persistence and evidence uploads.
type Deps struct {
	Store     *store.MemoryStore
	Machine   *intake.Machine
	Responder assistant.Responder
	Prompt    *assistant.PromptSpec
	Database  *db.DB
	Reports   store.ReportSink
	Evidence  evidence.Store
}

// NewServer wires the production collaborators from cfg.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	schema, err := intake.LoadSchema(cfg.IntakeSchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load intake schema: %w", err)
	}
	ms, err := store.NewMemoryStore(cfg.MaxSessions, cfg.MaxMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	prompt, err := assistant.LoadPromptSpec(cfg.PromptFile)
	if err != nil {
		log.Printf("warning: prompt file %s not loaded (%v); using built-in prompt", cfg.PromptFile, err)
		prompt = assistant.DefaultPromptSpec()
	}
	llm, err := assistant.NewResponder(ctx, cfg, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s responder: %w", cfg.Provider, err)
	}

	deps := Deps{
		Store:     ms,
		Machine:   intake.NewMachine(schema),
		Responder: llm,
		Prompt:    prompt,
	}

	// Reports go to Postgres when DB_URL is set, otherwise to JSON files
	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Println("database connection established")
		if err := database.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		deps.Database = database
		deps.Reports = store.NewDatabaseStore(database)
	} else {
		log.Printf("warning: DB_URL not provided, writing reports to %s", cfg.ReportsDir)
		deps.Reports = store.NewFileReportStore(cfg.ReportsDir)
	}

	if cfg.EvidenceS3.Enabled() {
		ev, err := evidence.NewS3Store(cfg.EvidenceS3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize evidence store: %w", err)
		}
		deps.Evidence = ev
	}

	log.Printf("[chat] using %s, intake schema with %d fields", llm.Name(), schema.Count())
	return New(cfg, deps), nil
}

// New builds a Server from explicit collaborators.
func New(cfg config.Config, deps Deps) *Server {
	if deps.Machine == nil {
		deps.Machine = intake.NewMachine(nil)
	}
	if deps.Store == nil {
		ms, err := store.NewMemoryStore(cfg.MaxSessions, cfg.MaxMessages)
		if err != nil {
			panic(err)
		}
		deps.Store = ms
	}
	if deps.Prompt == nil {
		deps.Prompt = assistant.DefaultPromptSpec()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:   r,
		cfg:      cfg,
		store:    deps.Store,
		machine:  deps.Machine,
		llm:      deps.Responder,
		prompt:   deps.Prompt,
		database: deps.Database,
		reports:  deps.Reports,
		evidence: deps.Evidence,

		wsWriteWait: wsWriteWait,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/chat/stream", s.handleChatStream)
	s.router.Get("/api/ws", s.handleWS)
	// Guided incident report
	s.router.Post("/api/report/start", s.handleReportStart)
	s.router.Post("/api/report/choice", s.handleReportChoice)
	s.router.Post("/api/report/attachments", s.handleReportAttachments)
	s.router.Get("/api/report/status", s.handleReportStatus)
	s.router.Get("/api/reports/{id}", s.handleGetReport)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the database connection, if any.
func (s *Server) Close() error {
	if s.database != nil {
		return s.database.Close()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.database != nil {
		if err := s.database.HealthCheck(r.Context()); err != nil {
			resp["database"] = "unavailable"
		} else {
			resp["database"] = "ok"
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.chatSession(r, w, req)
	if req.System != "" {
		s.store.Append(sid, store.Message{Role: assistant.RoleSystem, Content: req.System})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()
	s.writeJSON(w, http.StatusOK, s.converse(ctx, sid, req.Message))
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.chatSession(r, w, req)
	if req.System != "" {
		s.store.Append(sid, store.Message{Role: assistant.RoleSystem, Content: req.System})
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	// intake turns are answered in one write
	if out, handled := s.intakeTurn(r.Context(), sid, req.Message); handled {
		_, _ = w.Write([]byte(out.Reply))
		flusher.Flush()
		return
	}
	if s.llm == nil {
		_, _ = w.Write([]byte(s.prompt.Fallback.Error))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()
	s.store.Append(sid, store.Message{Role: assistant.RoleUser, Content: req.Message})
	wrote := false
	final, err := s.llm.Stream(ctx, s.turns(sid), func(chunk string) {
		wrote = true
		_, _ = w.Write([]byte(chunk))
		flusher.Flush()
	})
	if err != nil {
		log.Printf("[chat] stream error from %s: %v", s.llm.Name(), err)
	}
	if !wrote {
		final = s.prompt.Fallback.Empty
		if err != nil {
			final = s.prompt.Fallback.Error
		}
		_, _ = w.Write([]byte(final))
	}
	if strings.TrimSpace(final) != "" {
		s.store.Append(sid, store.Message{Role: assistant.RoleAssistant, Content: final})
	}
}

// chatSession resolves the session from cookie/header/query, then the body.
func (s *Server) chatSession(r *http.Request, w http.ResponseWriter, req types.ChatRequest) string {
	if getSessionID(r) == "" && req.SessionID != "" {
		r.Header.Set("X-Session-Id", req.SessionID)
	}
	return getOrCreateSessionID(r, w)
}

// converse handles one user line: an intake event when one applies, otherwise
// ordinary conversation with the language model.
func (s *Server) converse(ctx context.Context, sid, message string) types.ChatResponse {
	if out, handled := s.intakeTurn(ctx, sid, message); handled {
		return out
	}

	s.store.Append(sid, store.Message{Role: assistant.RoleUser, Content: message})
	reply := s.prompt.Fallback.Error
	if s.llm != nil {
		text, err := s.llm.Reply(ctx, s.turns(sid))
		switch {
		case err != nil:
			log.Printf("[chat] %s reply failed: %v", s.llm.Name(), err)
		case strings.TrimSpace(text) == "":
			reply = s.prompt.Fallback.Empty
		default:
			reply = text
		}
	}
	s.store.Append(sid, store.Message{Role: assistant.RoleAssistant, Content: reply})
	status := s.status(sid)
	return types.ChatResponse{
		SessionID: sid,
		Reply:     reply,
		Action:    string(assistant.DetectAction(message, s.cfg.StartTriggers)),
		Intake:    &status,
	}
}

// intakeTurn feeds message to the intake machine as a start trigger or an
// answer. It reports false when the session has no intake to answer.
func (s *Server) intakeTurn(ctx context.Context, sid, message string) (types.ChatResponse, bool) {
	ev := event{kind: eventAnswer, text: message}
	action := assistant.DetectAction(message, s.cfg.StartTriggers)
	if action == assistant.ActionFileReport {
		ev = event{kind: eventBegin}
	}
	out := s.apply(ctx, sid, ev)
	if !out.Handled {
		return types.ChatResponse{}, false
	}
	s.store.Append(sid, store.Message{Role: assistant.RoleUser, Content: message})
	return s.chatResponse(sid, action, out), true
}

func (s *Server) turns(sid string) []assistant.Turn {
	msgs := s.store.Get(sid)
	out := make([]assistant.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, assistant.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}
