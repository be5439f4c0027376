// Package prompt constructs the instruction payloads sent to the generative
// backend. Image prompts pair a fixed designer directive with a task clause
// built from the user's text and branding configuration; chat prompts pair a
// persona instruction with the running transcript. Both have a degraded
// variant used on retry attempts to cut payload size.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

const imageDirective = `ACT AS A WORLD-CLASS GRAPHIC DESIGNER SPECIALIZING IN MODERN 3D MMORPG LOGOS.
CORE MISSION: GENERATE A STUNNING LOGO WITH MODERN STYLIZED TYPOGRAPHY.
SPECIFICATIONS:
- FONT STYLE: CUSTOM, EMBOSSED, 3D METALLIC, OR GLOWING CRYSTAL TEXT.
- RENDERING: UNREAL ENGINE 5 STYLE, RAY-TRACING, CINEMATIC LIGHTING.
- ART STYLE: CURRENT GEN GAMING IDENTITY. NO GENERIC FONTS (ARIAL/TIMES).
- COMPOSITION: CENTERED, SHARP EDGES, EPIC AURA.
MANDATORY: THE NAME OF THE SERVER MUST BE THE MAIN FOCUS WITH A MODERN ARTISTIC FONT.`

const imageDirectiveDegraded = `ACT AS A 3D MMORPG LOGO DESIGNER. STYLIZED CUSTOM TYPOGRAPHY, CINEMATIC RENDERING, CENTERED COMPOSITION. THE SERVER NAME IS THE MAIN FOCUS.`

const chatPersona = "You are the 'Logo Forge Specialist'. Guide the user to choose the best styles for a modern MMORPG server. Be professional, technical, and always suggest stylized fonts and 3D effects."

const chatPersonaDegraded = "You are the 'Logo Forge Specialist', a branding assistant for MMORPG server logos. Be brief."

// degradedHistoryTurns is how much transcript survives degraded mode.
const degradedHistoryTurns = 4

// ImageTask parameterizes one image prompt.
type ImageTask struct {
	Text       string
	Config     models.LogoConfig
	Refinement bool
	Degraded   bool
}

// BuildImagePrompt assembles the full instruction text for an image call.
// Refinement and creation differ only in framing; both carry the style
// directive and the branding context.
func BuildImagePrompt(t ImageTask) string {
	directive := imageDirective
	if t.Degraded {
		directive = imageDirectiveDegraded
	}

	var b strings.Builder
	b.WriteString(directive)
	b.WriteString("\n")
	if t.Refinement {
		fmt.Fprintf(&b, "UPDATING LOGO ARTWORK: %s. Preserve the brand identity but apply the changes requested with modern 3D rendering.", t.Text)
	} else {
		fmt.Fprintf(&b, "FORGING NEW BRAND IDENTITY: %s. The logo must look like a high-end Lineage 2 / Aion modern server logo with stylized custom lettering.", t.Text)
	}
	fmt.Fprintf(&b, " Name: %s.", t.Config.ServerName)
	if !t.Degraded {
		if t.Config.Style != "" {
			fmt.Fprintf(&b, " Style: %s.", t.Config.Style)
		}
		if t.Config.ColorScheme != "" {
			fmt.Fprintf(&b, " Colors: %s.", t.Config.ColorScheme)
		}
		if t.Config.Symbol != "" {
			fmt.Fprintf(&b, " Symbol: %s.", t.Config.Symbol)
		}
	}
	return b.String()
}

// BuildChatSystem returns the persona instruction for a chat call.
func BuildChatSystem(degraded bool) string {
	if degraded {
		return chatPersonaDegraded
	}
	return chatPersona
}

// Transcript converts the running history into a strict alternating-role
// transcript for the backend. Consecutive turns with the same role are
// merged into one. Degraded mode keeps only the most recent turns.
func Transcript(history []models.Message, degraded bool) []models.Message {
	out := make([]models.Message, 0, len(history))
	for _, msg := range history {
		if n := len(out); n > 0 && out[n-1].Role == msg.Role {
			out[n-1].Content = out[n-1].Content + "\n" + msg.Content
			continue
		}
		out = append(out, msg)
	}
	if degraded && len(out) > degradedHistoryTurns {
		out = out[len(out)-degradedHistoryTurns:]
	}
	return out
}
