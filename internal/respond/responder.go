// Package respond wraps the model provider for open-ended generation:
// the diagnosis turn and free-form Q&A. Failures never escape as
// errors; the caller always receives display-ready text.
package respond

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
	"github.com/pharmagen-dev/pharmagen/pkg/observability"
)

// Fixed user-facing replies for classified model failures. Raw provider
// errors are never shown to the user.
const (
	MsgAuthError    = "Error: Invalid API key. Please check the service configuration."
	MsgQuotaError   = "Error: Rate limit exceeded. Please try again in a few moments."
	MsgInvalidError = "Error: Invalid request. Please try rephrasing your message."
	MsgGenericError = "Error: Unable to process your request. Please try again later."
)

// Purpose labels a generation call for temperature selection and
// metrics.
type Purpose string

const (
	PurposeDiagnosis Purpose = "diagnosis"
	PurposeQnA       Purpose = "qna"
)

// Responder issues generation calls with optional multi-turn context.
type Responder struct {
	provider      provider.Provider
	model         string
	diagnosisTemp float64
	qnaTemp       float64
	logger        *slog.Logger
}

// Config holds per-purpose generation settings.
type Config struct {
	Model         string
	DiagnosisTemp float64
	QnATemp       float64
}

// New creates a Responder.
func New(p provider.Provider, cfg Config, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		provider:      p,
		model:         cfg.Model,
		diagnosisTemp: cfg.DiagnosisTemp,
		qnaTemp:       cfg.QnATemp,
		logger:        logger.With("component", "respond"),
	}
}

// Respond sends prompt to the model, replaying history first when
// supplied. It always returns usable text: on failure the result is one
// of the four fixed error messages, indistinguishable in type from a
// real answer.
func (r *Responder) Respond(ctx context.Context, prompt string, history []provider.Message, purpose Purpose) string {
	temp := r.qnaTemp
	if purpose == PurposeDiagnosis {
		temp = r.diagnosisTemp
	}

	messages := make([]provider.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: prompt})

	resp, err := r.provider.CreateCompletion(ctx, provider.CompletionRequest{
		Messages:    messages,
		Model:       r.model,
		Temperature: temp,
	})
	if err != nil {
		observability.RecordModelCall(r.provider.Name(), string(purpose), "error")
		r.logger.Error("model call failed", "purpose", purpose, "error", err)
		return classifyError(err)
	}

	observability.RecordModelCall(r.provider.Name(), string(purpose), "ok")
	return resp.Content
}

// classifyError maps any failure into one of the four fixed user-facing
// messages. The mapping is total: unrecognized failures land in the
// generic bucket.
func classifyError(err error) string {
	var pErr *provider.ProviderError
	if errors.As(err, &pErr) {
		switch pErr.Code {
		case provider.ErrorCodeAuthentication:
			return MsgAuthError
		case provider.ErrorCodeRateLimit, provider.ErrorCodeQuotaExceeded:
			return MsgQuotaError
		case provider.ErrorCodeInvalidRequest:
			return MsgInvalidError
		}
	}

	// Fall back to inspecting the failure text, as some transports
	// surface bare errors.
	detail := strings.ToLower(err.Error())
	switch {
	case strings.Contains(detail, "401") || strings.Contains(detail, "unauthorized") || strings.Contains(detail, "api key not valid"):
		return MsgAuthError
	case strings.Contains(detail, "429") || strings.Contains(detail, "quota") || strings.Contains(detail, "rate"):
		return MsgQuotaError
	case strings.Contains(detail, "400") || strings.Contains(detail, "invalid"):
		return MsgInvalidError
	default:
		return MsgGenericError
	}
}
