package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/codepilot/internal/application/analysis"
	domain "github.com/bryanwahyu/codepilot/internal/domain/assist"
	"github.com/bryanwahyu/codepilot/internal/infra/ai/prompt"
)

// Service implements the AI assistance use-cases. When no Client is
// configured the service runs in demo mode and answers from templates.
type Service struct {
	Client   domain.Client // nil → demo mode
	Repo     domain.Repository
	Analysis *appanalysis.Service
	Clock    Clock
	Log      *zap.Logger
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// Enabled reports whether a live AI client is configured.
func (s *Service) Enabled() bool {
	return s.Client != nil
}

func (s *Service) Generate(ctx context.Context, req domain.Request) (*domain.Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrPromptRequired
	}
	req.Task = domain.TaskCodeGeneration
	return s.run(ctx, req)
}

func (s *Service) Complete(ctx context.Context, req domain.Request) (*domain.Response, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrCodeRequired
	}
	req.Task = domain.TaskCodeCompletion
	return s.run(ctx, req)
}

// Review runs the heuristic analyzers first and folds their findings into
// both the prompt context and the response suggestions.
func (s *Service) Review(ctx context.Context, req domain.Request) (*domain.Response, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrCodeRequired
	}
	req.Task = domain.TaskCodeReview

	var folded []string
	if s.Analysis != nil {
		rep, err := s.Analysis.Aggregate(ctx, req.Code, req.Language)
		if err == nil {
			req.Context = strings.TrimSpace(req.Context + "\n" + foldContext(rep.Complexity.Score, rep.Security.Score, rep.Style.Score))
			for _, r := range []*struct {
				label string
				sugg  []string
			}{
				{"complexity", rep.Complexity.Suggestions},
				{"security", rep.Security.Suggestions},
				{"style", rep.Style.Suggestions},
			} {
				for _, sg := range r.sugg {
					folded = append(folded, fmt.Sprintf("[%s] %s", r.label, sg))
				}
			}
		} else {
			s.Log.Warn("review analysis fold-in failed", zap.Error(err))
		}
	}

	resp, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Suggestions = append(resp.Suggestions, folded...)
	return resp, nil
}

func (s *Service) Document(ctx context.Context, req domain.Request) (*domain.Response, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrCodeRequired
	}
	req.Task = domain.TaskDocumentation
	return s.run(ctx, req)
}

func (s *Service) GenerateTests(ctx context.Context, req domain.Request) (*domain.Response, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrCodeRequired
	}
	req.Task = domain.TaskTestGeneration
	return s.run(ctx, req)
}

// run executes one assistance task end to end: prompt, completion (or demo
// fallback), parse, persist. Quota errors propagate; any other client error
// degrades to the demo answer.
func (s *Service) run(ctx context.Context, req domain.Request) (*domain.Response, error) {
	started := s.Clock.Now()

	resp := &domain.Response{
		ID:        uuid.New().String(),
		Task:      req.Task,
		Language:  req.Language,
		InputCode: req.Code,
		CreatedAt: started.UTC(),
	}

	if s.Client == nil {
		s.fillDemo(resp, req)
	} else {
		raw, err := s.Client.Complete(ctx, prompt.SystemPrompt(req.Task), prompt.UserPrompt(req))
		switch {
		case errors.Is(err, domain.ErrQuotaExceeded):
			return nil, err
		case err != nil:
			s.Log.Warn("ai completion failed, serving demo answer",
				zap.String("task", string(req.Task)),
				zap.Error(err),
			)
			s.fillDemo(resp, req)
		default:
			parseCompletion(raw, resp)
		}
	}

	resp.ProcessingMS = s.Clock.Now().Sub(started).Milliseconds()

	if _, err := s.Repo.Append(ctx, resp); err != nil {
		s.Log.Warn("assist response persist failed",
			zap.String("task", string(req.Task)),
			zap.Error(err),
		)
	}
	return resp, nil
}

// parseCompletion decodes the model's JSON answer into resp. A reply that is
// not the expected JSON object is kept verbatim as code.
func parseCompletion(raw string, resp *domain.Response) {
	var payload struct {
		Code        string   `json:"code"`
		Explanation string   `json:"explanation"`
		Confidence  float64  `json:"confidence"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && payload.Code != "" {
		resp.OutputCode = payload.Code
		resp.Explanation = payload.Explanation
		resp.Confidence = payload.Confidence
		resp.Suggestions = payload.Suggestions
		if resp.Suggestions == nil {
			resp.Suggestions = []string{}
		}
		return
	}
	resp.OutputCode = raw
	resp.Explanation = "AI-generated code"
	resp.Confidence = 0.8
	resp.Suggestions = []string{"Review the generated code carefully"}
}

func foldContext(complexity, security, style float64) string {
	return fmt.Sprintf(
		"Automated analysis scores for this code: complexity %.0f/100, security %.0f/100, style %.0f/100.",
		complexity, security, style)
}
