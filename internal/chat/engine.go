package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pharmagen-dev/pharmagen/internal/diagnosis"
	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
	"github.com/pharmagen-dev/pharmagen/internal/respond"
	"github.com/pharmagen-dev/pharmagen/internal/translate"
	"github.com/pharmagen-dev/pharmagen/pkg/observability"
	"github.com/pharmagen-dev/pharmagen/pkg/ratelimit"
)

// Fixed replies the engine emits without consulting the model.
const (
	MsgRateLimited  = "Rate limit exceeded. Please wait a moment before sending another message."
	MsgGeneric      = "An error occurred while processing your message. Please try again."
	MsgLanguageLost = "Error: Language not set. Please start over and select your language."

	// Summary placeholders shown before a diagnosis exists.
	MsgSummaryPending           = "The report summary will appear here after diagnosis."
	MsgTranslatedSummaryPending = "The translated report summary will appear here after diagnosis."
)

const defaultMaxMessageLength = 4000

// Result is the outcome of one processed message.
type Result struct {
	Reply             string `json:"reply"`
	EnglishSummary    string `json:"englishSummary"`
	TranslatedSummary string `json:"translatedSummary"`
	Stage             Stage  `json:"stage"`
}

// Engine drives sessions through the conversation stages. It is
// stateless across calls; all per-user state lives on the Session.
type Engine struct {
	limiter    ratelimit.Limiter
	translator *translate.Translator
	responder  *respond.Responder
	maxLen     int
	logger     *slog.Logger
}

// NewEngine wires the engine's collaborators. maxMessageLength bounds
// inbound text in runes; non-positive selects the default.
func NewEngine(limiter ratelimit.Limiter, tr *translate.Translator, r *respond.Responder, maxMessageLength int, logger *slog.Logger) *Engine {
	if limiter == nil {
		limiter = ratelimit.Disabled()
	}
	if maxMessageLength <= 0 {
		maxMessageLength = defaultMaxMessageLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		limiter:    limiter,
		translator: tr,
		responder:  r,
		maxLen:     maxMessageLength,
		logger:     logger.With("component", "chat"),
	}
}

// Process advances session by one inbound message and returns the
// reply plus the current report summaries. It never returns an error:
// any internal failure degrades to a fixed reply with the session left
// in its last good state.
func (e *Engine) Process(ctx context.Context, message string, session *Session) (result Result) {
	start := time.Now()
	stage := session.Stage
	status := "ok"

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while processing message", "stage", stage, "panic", r)
			status = "panic"
			result = e.resultWithReply(session, MsgGeneric)
		}
		observability.RecordChatTurn(string(stage), status, time.Since(start))
	}()

	message = sanitize(message, e.maxLen)
	if message == "" && session.Stage != StageAskSymptoms {
		return e.resultWithReply(session, "")
	}

	if !e.limiter.Admit(ctx, session.UserID) {
		observability.RecordRateLimitDenial()
		status = "rate_limited"
		e.logger.Info("message denied by rate limiter", "user", session.UserID, "stage", stage)
		// Untranslated on purpose: a denied turn must not spend a model
		// call on the user being throttled.
		return e.resultWithReply(session, MsgRateLimited)
	}

	var reply string
	switch session.Stage {
	case StageAskLanguage:
		reply = e.handleAskLanguage(ctx, message, session)
	case StageAskSymptoms:
		reply = e.handleAskSymptoms(ctx, message, session)
	case StageAskAllergies:
		reply = e.handleAskAllergies(ctx, message, session)
	case StageGeneralQnA:
		reply = e.handleQnA(ctx, message, session)
	default:
		e.logger.Warn("session in unexpected stage, resetting", "stage", session.Stage)
		session.Reset()
		reply = e.handleAskLanguage(ctx, message, session)
	}
	return e.resultWithReply(session, reply)
}

// handleAskLanguage resolves the user's language choice. Unrecognized
// names leave the stage unchanged and list the supported languages in
// English, since no display language exists yet.
func (e *Engine) handleAskLanguage(ctx context.Context, message string, session *Session) string {
	name := normalizeLanguageName(message)
	code, ok := translate.Code(name)
	if !ok {
		return fmt.Sprintf("Sorry, %q is not supported. Please choose one of: %s.",
			message, strings.Join(translate.SupportedLanguages(), ", "))
	}

	session.Language = name
	session.LanguageCode = code
	session.Stage = StageAskSymptoms

	welcome := fmt.Sprintf("Thank you! Your selected language is %s.", name)
	next := "Please describe your symptoms in detail so I can assist you."
	replyEn := welcome + "\n\n" + next

	session.appendTurn(provider.RoleUser, "User selected language: "+name)
	session.appendTurn(provider.RoleModel, replyEn)

	if code == "en" {
		return replyEn
	}
	return e.translator.Translate(ctx, welcome, "en", code) + "\n\n" +
		e.translator.Translate(ctx, next, "en", code)
}

// handleAskSymptoms captures the symptom description. An empty message
// re-prompts in the session language without advancing.
func (e *Engine) handleAskSymptoms(ctx context.Context, message string, session *Session) string {
	if session.LanguageCode == "" {
		session.Reset()
		return MsgLanguageLost
	}
	if message == "" {
		return e.localize(ctx, session, "Please describe your symptoms so I can assist you.")
	}

	session.SymptomsOriginal = message
	session.SymptomsEnglish = e.toEnglish(ctx, message, session)
	session.Stage = StageAskAllergies

	session.appendTurn(provider.RoleUser, "Symptoms: "+session.SymptomsEnglish)
	ask := "Thank you. Do you have any allergies or existing medical conditions I should know about? If none, just say \"none\"."
	session.appendTurn(provider.RoleModel, ask)
	return e.localize(ctx, session, ask)
}

// handleAskAllergies captures the allergy answer, then runs the
// diagnosis turn and builds both report summaries. The session lands in
// StageGeneralQnA whatever the model call's outcome, so a failed
// diagnosis surfaces its mapped error message but the conversation
// continues.
func (e *Engine) handleAskAllergies(ctx context.Context, message string, session *Session) string {
	if session.LanguageCode == "" {
		session.Reset()
		return MsgLanguageLost
	}

	session.AllergiesOriginal = message
	session.AllergiesEnglish = e.toEnglish(ctx, message, session)
	session.appendTurn(provider.RoleUser, "Allergies: "+session.AllergiesEnglish)
	session.Stage = StageGenerateResponse

	prompt := diagnosis.Prompt(session.SymptomsEnglish, session.AllergiesEnglish)
	block := e.responder.Respond(ctx, prompt, nil, respond.PurposeDiagnosis)

	session.DiagnosisEnglish = block
	session.appendTurn(provider.RoleModel, block)
	session.Stage = StageGeneralQnA

	fields := diagnosis.Extract(block)
	session.TranslatedSummary = e.buildTranslatedSummary(ctx, session, fields)

	if session.LanguageCode == "en" {
		return block
	}
	return e.translator.Translate(ctx, block, "en", session.LanguageCode)
}

// handleQnA answers a follow-up question against the stored case
// context, with the conversation history as multi-turn context.
func (e *Engine) handleQnA(ctx context.Context, message string, session *Session) string {
	question := e.toEnglish(ctx, message, session)
	prompt := fmt.Sprintf(
		"Context: the patient reported these symptoms: %s. Known allergies or conditions: %s.\n"+
			"Earlier assessment:\n%s\n\n"+
			"Answer the patient's follow-up question concisely and remind them to consult a licensed doctor.\n"+
			"Question: %s",
		session.SymptomsEnglish, session.AllergiesEnglish, session.DiagnosisEnglish, question)

	answer := e.responder.Respond(ctx, prompt, session.historyMessages(), respond.PurposeQnA)

	session.appendTurn(provider.RoleUser, question)
	session.appendTurn(provider.RoleModel, answer)

	if session.LanguageCode == "" || session.LanguageCode == "en" {
		return answer
	}
	return e.translator.Translate(ctx, answer, "en", session.LanguageCode)
}

// resultWithReply pairs a reply with the session's current summaries.
func (e *Engine) resultWithReply(session *Session, reply string) Result {
	res := Result{
		Reply:             reply,
		EnglishSummary:    MsgSummaryPending,
		TranslatedSummary: MsgTranslatedSummaryPending,
		Stage:             session.Stage,
	}
	if session.DiagnosisEnglish != "" {
		fields := diagnosis.Extract(session.DiagnosisEnglish)
		res.EnglishSummary = buildEnglishSummary(session, fields)
		if session.TranslatedSummary != "" {
			res.TranslatedSummary = session.TranslatedSummary
		} else {
			res.TranslatedSummary = res.EnglishSummary
		}
	}
	return res
}

// toEnglish normalizes user input to English for model consumption.
func (e *Engine) toEnglish(ctx context.Context, text string, session *Session) string {
	if session.LanguageCode == "" || session.LanguageCode == "en" {
		return text
	}
	return e.translator.Translate(ctx, text, session.LanguageCode, "en")
}

// localize renders a fixed English message in the session language.
func (e *Engine) localize(ctx context.Context, session *Session, text string) string {
	if text == "" || session.LanguageCode == "" || session.LanguageCode == "en" {
		return text
	}
	return e.translator.Translate(ctx, text, "en", session.LanguageCode)
}

// sanitize trims whitespace and bounds the message length in runes.
func sanitize(message string, maxLen int) string {
	message = strings.TrimSpace(message)
	if runes := []rune(message); len(runes) > maxLen {
		message = strings.TrimSpace(string(runes[:maxLen]))
	}
	return message
}

// normalizeLanguageName canonicalizes a typed language name: trimmed,
// first letter upper, rest lower ("sPAnish" becomes "Spanish").
func normalizeLanguageName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
