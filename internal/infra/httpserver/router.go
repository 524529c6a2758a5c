package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/analyzer"
	appanalysis "github.com/bryanwahyu/codepilot/internal/application/analysis"
	appassist "github.com/bryanwahyu/codepilot/internal/application/assist"
	appcollab "github.com/bryanwahyu/codepilot/internal/application/collab"
	analysisdomain "github.com/bryanwahyu/codepilot/internal/domain/analysis"
	assistdomain "github.com/bryanwahyu/codepilot/internal/domain/assist"
	collabdomain "github.com/bryanwahyu/codepilot/internal/domain/collab"
	"github.com/bryanwahyu/codepilot/internal/middleware"
)

const version = "1.0.0"

// errBadBody marks request bodies that fail to decode; caller input, not a
// server fault.
var errBadBody = errors.New("invalid request body")

type Router struct {
	analysisSvc *appanalysis.Service
	assistSvc   *appassist.Service
	coordinator *appcollab.Coordinator
	wsHandler   http.Handler
}

// Options carries the router's operational knobs.
type Options struct {
	Log             *zap.Logger
	HealthCheckers  map[string]middleware.HealthChecker
	RateLimit       int // bucket capacity; 0 disables rate limiting
	RateLimitRefill int // tokens per second
}

func NewRouter(analysisSvc *appanalysis.Service, assistSvc *appassist.Service, coordinator *appcollab.Coordinator, wsHandler http.Handler, opts Options) http.Handler {
	r := &Router{
		analysisSvc: analysisSvc,
		assistSvc:   assistSvc,
		coordinator: coordinator,
		wsHandler:   wsHandler,
	}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware(opts.Log))
	mux.Use(middleware.MetricsMiddleware)
	if opts.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.RateLimitRefill))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Handle("/ws", wsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/generate", r.wrap(r.handleGenerate))
		rt.Post("/complete", r.wrap(r.handleComplete))
		rt.Post("/review", r.wrap(r.handleReview))
		rt.Post("/document", r.wrap(r.handleDocument))
		rt.Post("/tests", r.wrap(r.handleTests))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleAnalyses))
		rt.Get("/analyses/{id}", r.wrap(r.handleGetAnalysis))
		rt.Get("/status", r.wrap(r.handleStatus))
		rt.Post("/sessions", r.wrap(r.handleCreateSession))
		rt.Get("/sessions/{id}", r.wrap(r.handleGetSession))
		rt.Post("/sessions/{id}/join", r.wrap(r.handleJoinSession))
		rt.Post("/sessions/{id}/deactivate", r.wrap(r.handleDeactivateSession))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, errBadBody),
				errors.Is(err, analysisdomain.ErrCodeRequired),
				errors.Is(err, assistdomain.ErrCodeRequired),
				errors.Is(err, assistdomain.ErrPromptRequired):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, collabdomain.ErrSessionNotFound), errors.Is(err, sql.ErrNoRows):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, collabdomain.ErrDuplicateSession):
				http.Error(w, "session already exists", http.StatusConflict)
			case errors.Is(err, assistdomain.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

type assistBody struct {
	Prompt   string `json:"prompt"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Context  string `json:"context"`
}

func (b assistBody) request() assistdomain.Request {
	return assistdomain.Request{
		Language: analyzer.Normalize(b.Language),
		Prompt:   b.Prompt,
		Code:     b.Code,
		Context:  b.Context,
	}
}

func decodeAssist(req *http.Request) (assistBody, error) {
	var body assistBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return body, fmt.Errorf("%w: %v", errBadBody, err)
	}
	body.Prompt = middleware.SanitizeString(body.Prompt)
	// No language tag: classify the submitted code instead.
	if body.Language == "" && body.Code != "" {
		body.Language = analyzer.Detect("", []byte(body.Code))
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func writeAssist(w http.ResponseWriter, resp *assistdomain.Response) error {
	middleware.IncrementAssist()
	if resp.Demo {
		middleware.IncrementAssistDemo()
	}
	return writeJSON(w, resp)
}

// POST /api/generate
func (r *Router) handleGenerate(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAssist(req)
	if err != nil {
		return err
	}
	resp, err := r.assistSvc.Generate(req.Context(), body.request())
	if err != nil {
		return err
	}
	return writeAssist(w, resp)
}

// POST /api/complete
func (r *Router) handleComplete(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAssist(req)
	if err != nil {
		return err
	}
	resp, err := r.assistSvc.Complete(req.Context(), body.request())
	if err != nil {
		return err
	}
	return writeAssist(w, resp)
}

// POST /api/review
func (r *Router) handleReview(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAssist(req)
	if err != nil {
		return err
	}
	resp, err := r.assistSvc.Review(req.Context(), body.request())
	if err != nil {
		return err
	}
	return writeAssist(w, resp)
}

// POST /api/document
func (r *Router) handleDocument(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAssist(req)
	if err != nil {
		return err
	}
	resp, err := r.assistSvc.Document(req.Context(), body.request())
	if err != nil {
		return err
	}
	return writeAssist(w, resp)
}

// POST /api/tests
func (r *Router) handleTests(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAssist(req)
	if err != nil {
		return err
	}
	resp, err := r.assistSvc.GenerateTests(req.Context(), body.request())
	if err != nil {
		return err
	}
	return writeAssist(w, resp)
}

// POST /api/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAssist(req)
	if err != nil {
		return err
	}
	rep, err := r.analysisSvc.Aggregate(req.Context(), body.Code, analyzer.Normalize(body.Language))
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()
	return writeJSON(w, map[string]any{
		"complexity":   rep.Complexity,
		"security":     rep.Security,
		"style":        rep.Style,
		"artifact_url": rep.ArtifactURL,
	})
}

// GET /api/analyses?limit=
func (r *Router) handleAnalyses(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.analysisSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*analysisdomain.Result{}
	}
	return writeJSON(w, list)
}

// GET /api/analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	res, err := r.analysisSvc.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /api/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, map[string]any{
		"version":    version,
		"ai_enabled": r.assistSvc.Enabled(),
		"languages":  analyzer.SupportedLanguages,
		"features": []string{
			"code_generation", "code_completion", "code_review",
			"test_generation", "documentation",
			"code_analysis", "collaboration",
		},
		"active_sessions": r.coordinator.Store.ActiveCount(),
	})
}

// POST /api/sessions
func (r *Router) handleCreateSession(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		SessionID string `json:"session_id"`
		Code      string `json:"code"`
		Language  string `json:"language"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if err := middleware.ValidateSessionID(body.SessionID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	sess, err := r.coordinator.Store.Create(req.Context(), body.SessionID, body.Code, analyzer.Normalize(body.Language))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(sess)
}

// GET /api/sessions/{id}
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.coordinator.Store.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, sess)
}

// POST /api/sessions/{id}/join
func (r *Router) handleJoinSession(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if err := middleware.ValidateParticipantID(body.ParticipantID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	sess, err := r.coordinator.HandleJoin(req.Context(), chi.URLParam(req, "id"), body.ParticipantID)
	if err != nil {
		return err
	}
	return writeJSON(w, sess)
}

// POST /api/sessions/{id}/deactivate
func (r *Router) handleDeactivateSession(w http.ResponseWriter, req *http.Request) error {
	if err := r.coordinator.Store.Deactivate(req.Context(), chi.URLParam(req, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
