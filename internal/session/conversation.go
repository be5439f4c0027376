package session

import (
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

// Conversation is the append-only message log for one session. Messages are
// never mutated after appending; reset replaces the log wholesale with a
// fresh greeting. Not safe for concurrent use; the Controller serializes
// access.
type Conversation struct {
	messages []models.Message
}

// NewConversation seeds the log with an assistant greeting.
func NewConversation(greeting string) *Conversation {
	c := &Conversation{}
	c.messages = append(c.messages, models.NewMessage(models.RoleAssistant, greeting))
	return c
}

// AppendUser adds a user turn with an optional attached image.
func (c *Conversation) AppendUser(text string, image []byte) models.Message {
	msg := models.NewMessage(models.RoleUser, text)
	msg.Image = image
	c.messages = append(c.messages, msg)
	return msg
}

// AppendAssistant adds an assistant turn.
func (c *Conversation) AppendAssistant(text string) models.Message {
	msg := models.NewMessage(models.RoleAssistant, text)
	c.messages = append(c.messages, msg)
	return msg
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []models.Message {
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() models.Message {
	return c.messages[len(c.messages)-1]
}

// Reset clears the log to a single fresh assistant greeting.
func (c *Conversation) Reset(greeting string) {
	c.messages = []models.Message{models.NewMessage(models.RoleAssistant, greeting)}
}
