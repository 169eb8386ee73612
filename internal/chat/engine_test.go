package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
	"github.com/pharmagen-dev/pharmagen/internal/respond"
	"github.com/pharmagen-dev/pharmagen/internal/translate"
	"github.com/pharmagen-dev/pharmagen/pkg/cache"
	"github.com/pharmagen-dev/pharmagen/pkg/ratelimit"
)

const diagnosisBlock = `Diagnosis: Tension headache caused by stress.
Proposed New Drug: Cephalex-Relief.
Hypothetical Dosage/Instructions: One 200mg tablet every 8 hours with water.
Allergy/Safety Note: Avoid if allergic to NSAIDs.`

type denyLimiter struct{}

func (denyLimiter) Admit(context.Context, string) bool { return false }

func newTestEngine(mock *provider.MockProvider, limiter ratelimit.Limiter) *Engine {
	tr := translate.New(mock, cache.Disabled(), 0)
	r := respond.New(mock, respond.Config{Model: "test-model", DiagnosisTemp: 0.7, QnATemp: 0.7}, nil)
	return NewEngine(limiter, tr, r, 0, nil)
}

func TestFullEnglishConversation(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Responses = []*provider.CompletionResponse{
		{Content: diagnosisBlock, FinishReason: "stop"},
	}
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()
	ctx := context.Background()

	res := engine.Process(ctx, "English", session)
	assert.Equal(t, StageAskSymptoms, session.Stage)
	assert.Contains(t, res.Reply, "selected language is English")
	assert.Contains(t, res.Reply, "symptoms")
	assert.Equal(t, MsgSummaryPending, res.EnglishSummary)
	assert.Zero(t, mock.CallCount(), "English sessions need no translation")

	res = engine.Process(ctx, "I have a headache", session)
	assert.Equal(t, StageAskAllergies, session.Stage)
	assert.Contains(t, strings.ToLower(res.Reply), "allergies")
	assert.Equal(t, "I have a headache", session.SymptomsEnglish)

	res = engine.Process(ctx, "none", session)
	assert.Equal(t, StageGeneralQnA, session.Stage)
	assert.Equal(t, 1, mock.CallCount(), "only the diagnosis call reaches the model")
	assert.Contains(t, res.Reply, "Tension headache")

	assert.Contains(t, res.EnglishSummary, "**Symptoms:** I have a headache")
	assert.Contains(t, res.EnglishSummary, "**Allergies:** none")
	assert.Contains(t, res.EnglishSummary, "**Diagnosis:** Tension headache caused by stress.")
	assert.Contains(t, res.EnglishSummary, "**Medicine:** Cephalex-Relief.")
	assert.Contains(t, res.EnglishSummary, "**Dosage:** One 200mg tablet every 8 hours with water.")
	assert.Contains(t, res.EnglishSummary, "**Safety Notes:** Avoid if allergic to NSAIDs.")
}

func TestUnrecognizedLanguageStays(t *testing.T) {
	mock := provider.NewMockProvider()
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()

	res := engine.Process(context.Background(), "NotALanguage", session)

	assert.Equal(t, StageAskLanguage, session.Stage)
	assert.Contains(t, res.Reply, "not supported")
	assert.Contains(t, res.Reply, "Spanish")
	assert.Contains(t, res.Reply, "Hindi")
	assert.Zero(t, mock.CallCount())
	assert.Empty(t, session.History)
}

func TestLanguageNameNormalization(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Respond = func(provider.CompletionRequest) string { return "¡bienvenido! «…»" }
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()

	engine.Process(context.Background(), "  sPAnish ", session)

	assert.Equal(t, "Spanish", session.Language)
	assert.Equal(t, "es", session.LanguageCode)
	assert.Equal(t, StageAskSymptoms, session.Stage)
	assert.Equal(t, 2, mock.CallCount(), "welcome and prompt are translated separately")
}

func TestRateLimitDenialLeavesStateUntouched(t *testing.T) {
	mock := provider.NewMockProvider()
	engine := newTestEngine(mock, denyLimiter{})
	session := NewSession()

	res := engine.Process(context.Background(), "English", session)

	assert.Equal(t, MsgRateLimited, res.Reply)
	assert.Equal(t, StageAskLanguage, session.Stage)
	assert.Empty(t, session.Language)
	assert.Zero(t, mock.CallCount())
}

func TestRateLimitDenialSkipsTranslation(t *testing.T) {
	mock := provider.NewMockProvider()
	engine := newTestEngine(mock, denyLimiter{})
	session := NewSession()
	session.Stage = StageAskSymptoms
	session.Language = "Spanish"
	session.LanguageCode = "es"

	res := engine.Process(context.Background(), "me duele la cabeza", session)

	assert.Equal(t, MsgRateLimited, res.Reply, "denial reply stays untranslated")
	assert.Zero(t, mock.CallCount(), "a throttled turn spends no model calls")
	assert.Empty(t, session.SymptomsEnglish)
}

func TestEmptySymptomsReprompts(t *testing.T) {
	mock := provider.NewMockProvider()
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()
	ctx := context.Background()

	engine.Process(ctx, "English", session)
	res := engine.Process(ctx, "   ", session)

	assert.Equal(t, StageAskSymptoms, session.Stage)
	assert.Contains(t, res.Reply, "describe your symptoms")
	assert.Empty(t, session.SymptomsEnglish)
}

func TestEmptyMessageOutsideSymptomsIsNoop(t *testing.T) {
	mock := provider.NewMockProvider()
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()

	res := engine.Process(context.Background(), "", session)

	assert.Empty(t, res.Reply)
	assert.Equal(t, StageAskLanguage, session.Stage)
	assert.Zero(t, mock.CallCount())
}

func TestSymptomsWithoutLanguageResets(t *testing.T) {
	mock := provider.NewMockProvider()
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()
	session.Stage = StageAskSymptoms // language never chosen

	res := engine.Process(context.Background(), "I feel dizzy", session)

	assert.Equal(t, MsgLanguageLost, res.Reply)
	assert.Equal(t, StageAskLanguage, session.Stage)
}

func TestFollowUpQuestionCarriesCaseContext(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Responses = []*provider.CompletionResponse{
		{Content: diagnosisBlock, FinishReason: "stop"},
		{Content: "Take it after meals.", FinishReason: "stop"},
	}
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()
	ctx := context.Background()

	engine.Process(ctx, "English", session)
	engine.Process(ctx, "I have a headache", session)
	engine.Process(ctx, "penicillin", session)

	res := engine.Process(ctx, "When should I take it?", session)
	assert.Equal(t, "Take it after meals.", res.Reply)
	assert.Equal(t, StageGeneralQnA, session.Stage)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	qna := calls[1]
	require.NotEmpty(t, qna.Messages)
	assert.Greater(t, len(qna.Messages), 1, "history accompanies the question")
	last := qna.Messages[len(qna.Messages)-1]
	assert.Contains(t, last.Content, "I have a headache")
	assert.Contains(t, last.Content, "penicillin")
	assert.Contains(t, last.Content, "When should I take it?")
}

func TestDiagnosisFailureStillAdvancesToQnA(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Errors = []error{
		provider.NewProviderError("mock", provider.ErrorCodeRateLimit, "slow down", nil),
	}
	engine := newTestEngine(mock, ratelimit.Disabled())
	session := NewSession()
	ctx := context.Background()

	engine.Process(ctx, "English", session)
	engine.Process(ctx, "I have a headache", session)
	res := engine.Process(ctx, "none", session)

	assert.Equal(t, respond.MsgQuotaError, res.Reply)
	assert.Equal(t, StageGeneralQnA, session.Stage)
}

func TestPanicRecoversToGenericReply(t *testing.T) {
	// A nil translator with a non-English session forces a panic in
	// the middle of a turn.
	mock := provider.NewMockProvider()
	r := respond.New(mock, respond.Config{Model: "test-model"}, nil)
	engine := NewEngine(ratelimit.Disabled(), nil, r, 0, nil)
	session := NewSession()
	session.Stage = StageAskSymptoms
	session.Language = "Spanish"
	session.LanguageCode = "es"

	var res Result
	assert.NotPanics(t, func() {
		res = engine.Process(context.Background(), "me duele la cabeza", session)
	})
	assert.Equal(t, MsgGeneric, res.Reply)
}

func TestMessageTruncatedToMaxLength(t *testing.T) {
	mock := provider.NewMockProvider()
	tr := translate.New(mock, cache.Disabled(), 0)
	r := respond.New(mock, respond.Config{Model: "test-model"}, nil)
	engine := NewEngine(ratelimit.Disabled(), tr, r, 10, nil)
	session := NewSession()
	session.Stage = StageAskSymptoms
	session.Language = "English"
	session.LanguageCode = "en"

	engine.Process(context.Background(), "0123456789extra", session)

	assert.Equal(t, "0123456789", session.SymptomsEnglish)
}
