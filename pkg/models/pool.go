package models

// Default pools, ordered by preference. Rotation walks these in order and
// clamps to the last entry once the pool is exhausted.
var (
	defaultImagePool = []string{
		"gemini-2.5-flash-image",
		"gemini-3-pro-image-preview",
	}
	defaultChatPool = []string{
		"gemini-3-flash-preview",
		"gemini-3-pro-preview",
		"gemini-flash-lite-latest",
	}
)

// resolution hints for higher-tier image models, keyed by model identifier
var imageSizeHints = map[string]string{
	"gemini-3-pro-image-preview": "1K",
}

// ModelPool holds the ordered candidate model identifiers for each task kind.
// It carries no state beyond the static ordering.
type ModelPool struct {
	image []string
	chat  []string
}

func DefaultPool() *ModelPool {
	return &ModelPool{image: defaultImagePool, chat: defaultChatPool}
}

// NewPool builds a pool from explicit orderings. Both lists must be non-empty.
func NewPool(image, chat []string) (*ModelPool, error) {
	if len(image) == 0 || len(chat) == 0 {
		return nil, ErrEmptyPool
	}
	return &ModelPool{image: image, chat: chat}, nil
}

// ForTask returns the ordered identifiers for the given task kind.
func (p *ModelPool) ForTask(kind TaskKind) []string {
	switch kind {
	case TaskImage:
		return p.image
	case TaskChat:
		return p.chat
	}
	return nil
}

// Pick returns the pool entry for the given attempt number, clamped to the
// last entry once the attempt count exceeds the pool size. The clamp is
// relied upon when the retry budget is larger than the pool.
func (p *ModelPool) Pick(kind TaskKind, attempt int) string {
	pool := p.ForTask(kind)
	if len(pool) == 0 {
		return ""
	}
	if attempt >= len(pool) {
		return pool[len(pool)-1]
	}
	if attempt < 0 {
		return pool[0]
	}
	return pool[attempt]
}

// ResolutionHint returns the image-size hint for a model, or "" when the
// model takes no hint.
func ResolutionHint(model string) string {
	return imageSizeHints[model]
}
