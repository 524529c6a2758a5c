package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/codepilot/internal/analyzer"
	domain "github.com/bryanwahyu/codepilot/internal/domain/analysis"
)

// Service implements the analysis aggregation use-case: fan out the three
// independent heuristic scans, persist each result append-only, and return
// the combined report. Safe for concurrent use.
type Service struct {
	Engine  *analyzer.Engine
	Repo    domain.Repository
	Reports domain.ReportStore // optional; nil disables artifact uploads
	Clock   Clock
	Log     *zap.Logger
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// Aggregate runs complexity, security and style analysis over code. The
// three runs are independent and execute in parallel. A persistence failure
// for one result is logged and never blocks returning the in-memory report.
func (s *Service) Aggregate(ctx context.Context, code, language string) (*domain.Report, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrCodeRequired
	}

	var rep domain.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.Complexity = s.Engine.Analyze(gctx, code, language, domain.KindComplexity)
		return nil
	})
	g.Go(func() error {
		rep.Security = s.Engine.Analyze(gctx, code, language, domain.KindSecurity)
		return nil
	})
	g.Go(func() error {
		rep.Style = s.Engine.Analyze(gctx, code, language, domain.KindStyle)
		return nil
	})
	// Analyzer runs never fail; the group exists for the parallel fan-out.
	_ = g.Wait()

	for _, r := range []*domain.Result{rep.Complexity, rep.Security, rep.Style} {
		r.ID = uuid.New().String()
		if _, err := s.Repo.Append(ctx, r); err != nil {
			s.Log.Warn("analysis result persist failed",
				zap.String("kind", string(r.Kind)),
				zap.Error(err),
			)
		}
	}

	s.uploadReport(ctx, &rep)
	return &rep, nil
}

// uploadReport pushes the combined report JSON to the artifact store when
// one is configured. Upload failures are logged and swallowed.
func (s *Service) uploadReport(ctx context.Context, rep *domain.Report) {
	if s.Reports == nil {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		s.Log.Warn("report marshal failed", zap.Error(err))
		return
	}
	key := fmt.Sprintf("reports/%s/%s.json",
		s.Clock.Now().UTC().Format("2006-01-02"), uuid.New().String())
	url, err := s.Reports.UploadReport(ctx, key, data)
	if err != nil {
		s.Log.Warn("report upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	rep.ArtifactURL = url
}

// Latest returns the most recently stored analysis results.
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Result, error) {
	return s.Repo.Latest(ctx, limit)
}

// Get returns one stored result by identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.Result, error) {
	return s.Repo.Get(ctx, id)
}
