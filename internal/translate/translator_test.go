package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
	"github.com/pharmagen-dev/pharmagen/pkg/cache"
)

func TestTranslateEmptyInput(t *testing.T) {
	mock := provider.NewMockProvider()
	tr := New(mock, cache.Disabled(), 0)

	assert.Empty(t, tr.Translate(context.Background(), "   \n\t ", "en", "es"))
	assert.Zero(t, mock.CallCount())
}

func TestTranslateIdentityShortCircuit(t *testing.T) {
	mock := provider.NewMockProvider()
	tr := New(mock, cache.Disabled(), 0)

	got := tr.Translate(context.Background(), "hello there", "en", "en")

	assert.Equal(t, "hello there", got)
	assert.Zero(t, mock.CallCount())
}

func TestTranslateNormalizesUnknownCodes(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Respond = func(req provider.CompletionRequest) string {
		require.Len(t, req.Messages, 1)
		prompt := req.Messages[0].Content
		// Unknown source falls back to detection, unknown target to
		// English.
		assert.Contains(t, prompt, "Translate this text to English")
		assert.NotContains(t, prompt, "from")
		return "hello"
	}
	tr := New(mock, cache.Disabled(), 0)

	got := tr.Translate(context.Background(), "bonjour", "xx", "zz")

	assert.Equal(t, "hello", got)
	assert.Equal(t, 1, mock.CallCount())
}

func TestTranslateCacheHitSkipsProvider(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Responses = []*provider.CompletionResponse{
		{Content: "«hola»", FinishReason: "stop"},
	}
	tr := New(mock, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	first := tr.Translate(ctx, "hello", "en", "es")
	second := tr.Translate(ctx, "hello", "en", "es")

	assert.Equal(t, "«hola»", first)
	assert.Equal(t, "«hola»", second)
	assert.Equal(t, 1, mock.CallCount())
}

func TestTranslatePassthroughOnProviderError(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Errors = []error{errors.New("boom")}
	mock.Respond = func(provider.CompletionRequest) string { return "«hola»" }
	tr := New(mock, cache.NewMemory(), time.Hour)
	ctx := context.Background()

	got := tr.Translate(ctx, "hello", "en", "es")
	assert.Equal(t, "hello", got)

	// Failures are not cached; the next attempt reaches the provider.
	mock.Errors = nil
	tr.Translate(ctx, "hello", "en", "es")
	assert.Equal(t, 2, mock.CallCount())
}

func TestTranslateRetriesAsciiResultForNonLatinTarget(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Responses = []*provider.CompletionResponse{
		{Content: "namaste", FinishReason: "stop"},
		{Content: "नमस्ते", FinishReason: "stop"},
	}
	tr := New(mock, cache.Disabled(), 0)

	got := tr.Translate(context.Background(), "hello", "en", "hi")

	assert.Equal(t, "नमस्ते", got)
	require.Equal(t, 2, mock.CallCount())
	retry := mock.Calls()[1].Messages[0].Content
	assert.Contains(t, retry, "native script")
	assert.Contains(t, retry, "Hindi")
}

func TestTranslateRetryFailureKeepsFirstResult(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Responses = []*provider.CompletionResponse{
		{Content: "namaste", FinishReason: "stop"},
	}
	mock.Errors = []error{nil, errors.New("boom")}
	tr := New(mock, cache.Disabled(), 0)

	got := tr.Translate(context.Background(), "hello", "en", "hi")

	assert.Equal(t, "namaste", got)
	assert.Equal(t, 2, mock.CallCount())
}

func TestTranslateNoRetryForEnglishTarget(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.Responses = []*provider.CompletionResponse{
		{Content: "hello again", FinishReason: "stop"},
	}
	tr := New(mock, cache.Disabled(), 0)

	got := tr.Translate(context.Background(), "hola otra vez", "es", "en")

	assert.Equal(t, "hello again", got)
	assert.Equal(t, 1, mock.CallCount())
}

func TestCollapsePolicies(t *testing.T) {
	reply := "Sure, here is the translation:\nhola\nuna traducción mucho más larga que las demás"

	mock := provider.NewMockProvider()
	mock.Respond = func(provider.CompletionRequest) string { return reply }

	longest := New(mock, cache.Disabled(), 0)
	got := longest.Translate(context.Background(), "hello", "en", "es")
	assert.Equal(t, "una traducción mucho más larga que las demás", got)

	first := New(mock, cache.Disabled(), 0, WithCollapsePolicy(CollapseFirstLine))
	got = first.Translate(context.Background(), "hello", "en", "es")
	assert.Equal(t, "Sure, here is the translation:", got)
}

func TestAsciiFraction(t *testing.T) {
	assert.Equal(t, 0.0, asciiFraction(""))
	assert.Equal(t, 1.0, asciiFraction("plain ascii"))
	assert.Less(t, asciiFraction("नमस्ते"), 0.1)
}

func TestLanguageTable(t *testing.T) {
	code, ok := Code("Spanish")
	require.True(t, ok)
	assert.Equal(t, "es", code)

	_, ok = Code("Klingon")
	assert.False(t, ok)

	assert.Equal(t, "Telugu", Name("te"))
	assert.Equal(t, "qq", Name("qq"))
	assert.True(t, KnownCode("zh"))
	assert.False(t, KnownCode("auto"))

	names := SupportedLanguages()
	assert.Len(t, names, 20)
	assert.Contains(t, names, "English")
	assert.Contains(t, names, "Kannada")
}
