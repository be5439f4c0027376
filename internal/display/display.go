// Package display renders generated logos inline in terminals that support
// the kitty graphics protocol, with a plain-text fallback elsewhere.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

type Displayer struct {
	out    io.Writer
	inline bool
}

// New autodetects inline-graphics support for the process terminal.
func New(out io.Writer) *Displayer {
	return &Displayer{out: out, inline: IsTerminalSupported()}
}

// NewWithSupport pins the rendering mode, for hosts that know better.
func NewWithSupport(out io.Writer, inline bool) *Displayer {
	return &Displayer{out: out, inline: inline}
}

// Display renders the image bytes inline when the terminal supports it.
// Otherwise it prints a one-line placeholder with the payload size so the
// user knows a logo exists and can download it.
func (d *Displayer) Display(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("no image data to display")
	}

	if !d.inline {
		fmt.Fprintf(d.out, "[logo gerado: %s — use 'download' para salvar]\n", humanize.Bytes(uint64(len(data))))
		return nil
	}

	enc := NewKittyEncoder(d.out)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	fmt.Fprintln(d.out)
	return nil
}

// IsTerminalSupported reports whether stdout is an interactive terminal that
// understands the kitty graphics protocol.
func IsTerminalSupported() bool {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}

	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	for _, prog := range []string{"kitty", "ghostty", "iterm.app", "wezterm"} {
		if termProgram == prog {
			return true
		}
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
