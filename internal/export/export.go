// Package export writes the current logo to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/security"
)

type Saver struct{}

func NewSaver() *Saver {
	return &Saver{}
}

// Save writes the logo bytes to path after validating it. An empty path
// falls back to a name derived from the server name.
func (s *Saver) Save(data []byte, path, serverName string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data available")
	}
	if path == "" {
		path = security.DefaultLogoFilename(serverName)
	}
	if err := security.ValidateSavePath(path); err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}
