package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyServerName = errors.New("server name cannot be empty")
	ErrEmptyPool       = errors.New("model pool cannot be empty")
	ErrUnknownTask     = errors.New("unknown task kind")
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversational turn. Messages are immutable once appended
// to a conversation; they are only ever created and discarded wholesale.
type Message struct {
	ID      string
	Role    Role
	Content string
	Image   []byte // optional attached raster data (PNG)
	At      time.Time
}

func NewMessage(role Role, content string) Message {
	return Message{
		ID:      uuid.New().String(),
		Role:    role,
		Content: content,
		At:      time.Now(),
	}
}

// LogoConfig holds the user-editable branding parameters. It is pure
// configuration: mutated only by direct user edits and read by the
// prompt builder.
type LogoConfig struct {
	ServerName  string
	Style       string
	ColorScheme string
	Symbol      string
}

func DefaultLogoConfig() LogoConfig {
	return LogoConfig{
		Style:       "Modern Epic",
		ColorScheme: "Gold & Steel",
		Symbol:      "Eagle Crest",
	}
}

// StyleOptions lists the preset visual styles offered by the UI.
func StyleOptions() []string {
	return []string{"Modern Epic", "Classic Gothic", "Crystalline", "Dark Fantasy"}
}

// SymbolOptions lists the preset crest symbols offered by the UI.
func SymbolOptions() []string {
	return []string{"Eagle Crest", "Wings of Fate", "Dragon Head", "Portal Gate", "Sacred Sword"}
}

// GenerationStatus reflects the outcome of the most recent generation or
// chat call and drives the UI affordances.
type GenerationStatus string

const (
	StatusIdle    GenerationStatus = "IDLE"
	StatusLoading GenerationStatus = "LOADING"
	StatusSuccess GenerationStatus = "SUCCESS"
	StatusError   GenerationStatus = "ERROR"
)

// SessionState is the authentication gate state.
type SessionState string

const (
	StateChecking        SessionState = "CHECKING"
	StateAuthenticated   SessionState = "AUTHENTICATED"
	StateUnauthenticated SessionState = "UNAUTHENTICATED"
)

// TaskKind selects which model pool a request runs against.
type TaskKind string

const (
	TaskImage TaskKind = "image"
	TaskChat  TaskKind = "chat"
)

// ProviderType identifies a generative backend implementation.
type ProviderType string

const (
	ProviderGemini     ProviderType = "gemini"
	ProviderOpenRouter ProviderType = "openrouter"
)
