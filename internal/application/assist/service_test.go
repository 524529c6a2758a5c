package assist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/analyzer"
	appanalysis "github.com/bryanwahyu/codepilot/internal/application/analysis"
	domainanalysis "github.com/bryanwahyu/codepilot/internal/domain/analysis"
	domain "github.com/bryanwahyu/codepilot/internal/domain/assist"
)

type fakeClient struct {
	reply string
	err   error
	calls int
}

func (f *fakeClient) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeRepo struct {
	responses []*domain.Response
	fail      bool
}

func (f *fakeRepo) Append(_ context.Context, r *domain.Response) (string, error) {
	if f.fail {
		return "", errors.New("disk full")
	}
	f.responses = append(f.responses, r)
	return r.ID, nil
}

type fakeAnalysisRepo struct{}

func (fakeAnalysisRepo) Append(_ context.Context, r *domainanalysis.Result) (string, error) {
	return r.ID, nil
}
func (fakeAnalysisRepo) Get(_ context.Context, _ string) (*domainanalysis.Result, error) {
	return nil, errors.New("not found")
}
func (fakeAnalysisRepo) Latest(_ context.Context, _ int) ([]*domainanalysis.Result, error) {
	return nil, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newService(client domain.Client, repo *fakeRepo) *Service {
	return &Service{
		Client: client,
		Repo:   repo,
		Analysis: &appanalysis.Service{
			Engine: analyzer.New(zap.NewNop()),
			Repo:   fakeAnalysisRepo{},
			Clock:  fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
			Log:    zap.NewNop(),
		},
		Clock: fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Log:   zap.NewNop(),
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	svc := newService(nil, &fakeRepo{})

	_, err := svc.Generate(context.Background(), domain.Request{Language: "python"})
	assert.ErrorIs(t, err, domain.ErrPromptRequired)
}

func TestGenerateParsesStructuredReply(t *testing.T) {
	client := &fakeClient{reply: `{"code":"def add(a, b):\n    return a + b\n","explanation":"adds two numbers","confidence":0.92,"suggestions":["add type hints"]}`}
	repo := &fakeRepo{}
	svc := newService(client, repo)

	resp, err := svc.Generate(context.Background(), domain.Request{
		Language: "python",
		Prompt:   "function that adds two numbers",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCodeGeneration, resp.Task)
	assert.Contains(t, resp.OutputCode, "def add")
	assert.Equal(t, "adds two numbers", resp.Explanation)
	assert.Equal(t, 0.92, resp.Confidence)
	assert.Equal(t, []string{"add type hints"}, resp.Suggestions)
	assert.False(t, resp.Demo)
	assert.Equal(t, 1, client.calls)

	require.Len(t, repo.responses, 1)
	assert.Equal(t, resp.ID, repo.responses[0].ID)
}

func TestGenerateKeepsRawReplyWhenNotJSON(t *testing.T) {
	client := &fakeClient{reply: "print('hello')"}
	svc := newService(client, &fakeRepo{})

	resp, err := svc.Generate(context.Background(), domain.Request{
		Language: "python",
		Prompt:   "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, "print('hello')", resp.OutputCode)
	assert.Equal(t, "AI-generated code", resp.Explanation)
	assert.Equal(t, 0.8, resp.Confidence)
}

func TestClientFailureServesDemoAnswer(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	repo := &fakeRepo{}
	svc := newService(client, repo)

	resp, err := svc.Generate(context.Background(), domain.Request{
		Language: "go",
		Prompt:   "http handler",
	})
	require.NoError(t, err)
	assert.True(t, resp.Demo)
	assert.NotEmpty(t, resp.OutputCode)
	require.Len(t, repo.responses, 1)
	assert.True(t, repo.responses[0].Demo)
}

func TestQuotaErrorPropagates(t *testing.T) {
	client := &fakeClient{err: domain.ErrQuotaExceeded}
	repo := &fakeRepo{}
	svc := newService(client, repo)

	_, err := svc.Generate(context.Background(), domain.Request{
		Language: "go",
		Prompt:   "http handler",
	})
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Empty(t, repo.responses)
}

func TestNoClientMeansDemoMode(t *testing.T) {
	svc := newService(nil, &fakeRepo{})
	assert.False(t, svc.Enabled())

	resp, err := svc.Complete(context.Background(), domain.Request{
		Language: "python",
		Code:     "def add(a, b):",
	})
	require.NoError(t, err)
	assert.True(t, resp.Demo)
	assert.Contains(t, resp.OutputCode, "def add(a, b):")
}

func TestCompleteRequiresCode(t *testing.T) {
	svc := newService(nil, &fakeRepo{})

	_, err := svc.Complete(context.Background(), domain.Request{Language: "python"})
	assert.ErrorIs(t, err, domain.ErrCodeRequired)
}

func TestReviewFoldsAnalysisSuggestions(t *testing.T) {
	client := &fakeClient{reply: `{"code":"cleaned","explanation":"ok","confidence":0.9,"suggestions":[]}`}
	svc := newService(client, &fakeRepo{})

	resp, err := svc.Review(context.Background(), domain.Request{
		Language: "python",
		Code:     "try:\n    x = eval(raw)\nexcept:\n    pass",
	})
	require.NoError(t, err)
	assert.False(t, resp.Demo)

	foundSecurity := false
	for _, s := range resp.Suggestions {
		if len(s) > 0 && s[0] == '[' {
			foundSecurity = true
		}
	}
	assert.True(t, foundSecurity, "analyzer suggestions should be folded into the review")
}

func TestPersistFailureDoesNotBlockCaller(t *testing.T) {
	svc := newService(nil, &fakeRepo{fail: true})

	resp, err := svc.Generate(context.Background(), domain.Request{
		Language: "python",
		Prompt:   "anything",
	})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}
