// Package chat owns the conversation state machine: one session per end
// user, advanced through a fixed stage sequence by inbound messages.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
)

// Stage is the session's position in the fixed conversation sequence.
// Stages only advance forward; the sole backward transition is an
// explicit reset to StageAskLanguage.
type Stage string

const (
	StageAskLanguage      Stage = "ask_language"
	StageAskSymptoms      Stage = "ask_symptoms"
	StageAskAllergies     Stage = "ask_allergies"
	StageGenerateResponse Stage = "generate_response"
	StageGeneralQnA       Stage = "general_qna"
)

// Turn is one entry in the conversation history. Text is always the
// English variant, which is what the model sees on multi-turn calls.
type Turn struct {
	Role string `json:"role"` // provider.RoleUser or provider.RoleModel
	Text string `json:"text"`
}

// Session holds the per-user conversation state. It lives in memory for
// the process lifetime; nothing is persisted.
//
// Language and the captured free-text fields are written once by their
// owning stage and read-only afterwards. History is append-only.
type Session struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`

	// Display language, immutable once selected.
	Language     string `json:"language,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`

	// Captured free text, original and English-normalized.
	SymptomsOriginal  string `json:"symptomsOriginal,omitempty"`
	SymptomsEnglish   string `json:"symptomsEnglish,omitempty"`
	AllergiesOriginal string `json:"allergiesOriginal,omitempty"`
	AllergiesEnglish  string `json:"allergiesEnglish,omitempty"`

	// Raw model output of the diagnosis turn; source of truth for all
	// later field extraction.
	DiagnosisEnglish string `json:"diagnosisEnglish,omitempty"`

	// Last built translated report summary, kept for the report
	// exporter.
	TranslatedSummary string `json:"translatedSummary,omitempty"`

	// Multi-turn context for the response gateway.
	History []Turn `json:"history"`

	// UserID partitions the rate limiter. Opaque, not
	// security-sensitive.
	UserID string `json:"userId"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewSession creates a session at the initial stage.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		Stage:     StageAskLanguage,
		UserID:    uuid.NewString()[:8],
		CreatedAt: time.Now().UTC(),
	}
}

// Reset returns the session to its initial state, keeping identity so
// the rate-limit partition survives.
func (s *Session) Reset() {
	id, userID, created := s.ID, s.UserID, s.CreatedAt
	*s = Session{
		ID:        id,
		Stage:     StageAskLanguage,
		UserID:    userID,
		CreatedAt: created,
	}
}

// appendTurn records an exchange entry.
func (s *Session) appendTurn(role, text string) {
	s.History = append(s.History, Turn{Role: role, Text: text})
}

// historyMessages converts the stored history into provider messages.
func (s *Session) historyMessages() []provider.Message {
	msgs := make([]provider.Message, 0, len(s.History))
	for _, turn := range s.History {
		msgs = append(msgs, provider.Message{Role: turn.Role, Content: turn.Text})
	}
	return msgs
}
