package classify

import (
	"strings"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

// DefaultKeywords is the visual-intent keyword set. The list is heuristic
// and deliberately mixed-language (the user base writes in Portuguese and
// English); treat it as configuration. A message matching none of these can
// still be a visual request if it carries an upload or arrives before any
// image exists. Misclassification is an accepted failure mode.
var DefaultKeywords = []string{
	// pt
	"mude", "altere", "cor", "fogo", "criar", "gerar", "remover", "tira", "bota",
	// en
	"change", "alter", "color", "colour", "fire", "create", "generate",
	"remove", "add", "make", "logo", "render", "3d", "font", "stylized", "glow",
}

// DefaultOverridePhrases force a fresh creation even when a current image
// exists.
var DefaultOverridePhrases = []string{
	"criar novo", "create new", "generate new", "start over",
}

// Input is the per-message session context the classifier inspects.
type Input struct {
	Text            string
	HasUpload       bool
	HasCurrentImage bool
}

// Decision routes a user message.
type Decision struct {
	Kind       models.TaskKind
	Refinement bool // meaningful only when Kind == TaskImage
}

// Intent decides, per user message, whether to route to image generation or
// conversational chat, and within image handling whether the request refines
// the current image or starts from scratch.
type Intent struct {
	keywords  []string
	overrides []string
}

func NewIntent(keywords, overrides []string) *Intent {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if overrides == nil {
		overrides = DefaultOverridePhrases
	}
	return &Intent{keywords: keywords, overrides: overrides}
}

// Classify applies the routing rules:
//   - image request if the text contains a visual keyword, OR an image was
//     uploaded with the message, OR no current image exists yet (the first
//     interaction always defaults to image intent);
//   - within an image request, refinement if a current image exists and no
//     override phrase is present.
func (c *Intent) Classify(in Input) Decision {
	lowered := strings.ToLower(in.Text)

	visual := in.HasUpload || !in.HasCurrentImage
	if !visual {
		for _, kw := range c.keywords {
			if strings.Contains(lowered, kw) {
				visual = true
				break
			}
		}
	}
	if !visual {
		return Decision{Kind: models.TaskChat}
	}

	refinement := in.HasCurrentImage
	if refinement {
		for _, phrase := range c.overrides {
			if strings.Contains(lowered, phrase) {
				refinement = false
				break
			}
		}
	}
	return Decision{Kind: models.TaskImage, Refinement: refinement}
}
