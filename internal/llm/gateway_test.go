package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func TestGeminiClient_Generate_Success(t *testing.T) {
	gen := new(MockContentGenerator)
	client := newGeminiClient(gen, "gemini-2.5-flash", time.Second, zap.NewNop())

	gen.On("GenerateContent", mock.Anything, "gemini-2.5-flash", mock.Anything,
		mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
			return c != nil && c.ResponseMIMEType == "application/json"
		}),
	).Return(textResponse("  {\"recommendations\":[]}  "), nil).Once()

	out, err := client.Generate(context.Background(), Request{Prompt: "rank", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"recommendations":[]}`, out)
	gen.AssertExpectations(t)
}

func TestGeminiClient_Generate_ModelOverride(t *testing.T) {
	gen := new(MockContentGenerator)
	client := newGeminiClient(gen, "gemini-2.5-flash", time.Second, zap.NewNop())

	gen.On("GenerateContent", mock.Anything, "gemini-2.5-flash-lite", mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return(textResponse("Keep going"), nil).Once()

	out, err := client.Generate(context.Background(), Request{Prompt: "coach", Model: "gemini-2.5-flash-lite"})
	require.NoError(t, err)
	assert.Equal(t, "Keep going", out)
}

func TestGeminiClient_Generate_Errors(t *testing.T) {
	gen := new(MockContentGenerator)
	client := newGeminiClient(gen, "m", time.Second, zap.NewNop())

	gen.On("GenerateContent", mock.Anything, "m", mock.Anything, mock.Anything).
		Return(nil, errors.New("quota exceeded")).Once()
	_, err := client.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrTimeout)

	gen.On("GenerateContent", mock.Anything, "m", mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).Once()
	_, err = client.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, ErrTimeout)

	gen.On("GenerateContent", mock.Anything, "m", mock.Anything, mock.Anything).
		Return(textResponse("   "), nil).Once()
	_, err = client.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGeminiClient_Generate_AppliesTimeout(t *testing.T) {
	gen := new(MockContentGenerator)
	client := newGeminiClient(gen, "m", 50*time.Millisecond, zap.NewNop())

	gen.On("GenerateContent", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 50*time.Millisecond
	}), "m", mock.Anything, mock.Anything).Return(textResponse("ok"), nil).Once()

	_, err := client.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	gen.AssertExpectations(t)
}
