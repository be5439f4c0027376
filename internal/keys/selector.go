package keys

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Selector implements the session gate's credential capability on top of
// the key store: HasCredential reports whether any usable key is configured
// for the provider, OpenSelector prompts interactively for one and stores it.
type Selector struct {
	store    *Store
	provider string
	explicit string
	envVar   string
	in       *bufio.Reader
	out      io.Writer
}

// explicitKey is the command-line override and may be empty; envVar names the
// provider's environment fallback.
func NewSelector(store *Store, provider, explicitKey, envVar string, in io.Reader, out io.Writer) *Selector {
	return &Selector{
		store:    store,
		provider: provider,
		explicit: explicitKey,
		envVar:   envVar,
		in:       bufio.NewReader(in),
		out:      out,
	}
}

// HasCredential checks the same resolution order the providers use (flag,
// then stored key, then environment), so a key supplied only through the
// environment unlocks the session without a pro-forma login.
func (s *Selector) HasCredential(_ context.Context) (bool, error) {
	if s.explicit != "" {
		return true, nil
	}
	if key, err := s.store.Get(s.provider); err == nil && key != "" {
		return true, nil
	}
	return s.envVar != "" && os.Getenv(s.envVar) != "", nil
}

// OpenSelector asks for a key on the configured reader. An empty line
// leaves the stored key untouched.
func (s *Selector) OpenSelector(_ context.Context) error {
	fmt.Fprintf(s.out, "Paste your %s API key (enter to keep current): ", s.provider)

	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return nil
	}

	if err := s.store.Set(s.provider, key); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Stored %s key %s\n", s.provider, MaskKey(key))
	return nil
}
