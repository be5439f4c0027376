// Package gate tracks the authentication state guarding all generation and
// chat functionality.
//
// The host capability check is inherently racy: it cannot distinguish "user
// is mid-flow in the credential selector" from "user declined". The gate
// trades strict correctness for liveness: after any login attempt it
// optimistically unlocks, and ForceReauthenticate re-locks on the first
// authentication failure actually observed from a real call.
package gate

import (
	"context"
	"strings"
	"sync"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

// Capability is a host-provided credential facility. Absence (a nil
// Capability) is a valid, expected condition, not an error.
type Capability interface {
	HasCredential(ctx context.Context) (bool, error)
	OpenSelector(ctx context.Context) error
}

// Gate is the authentication state machine. Safe for concurrent use.
type Gate struct {
	mu         sync.Mutex
	state      models.SessionState
	loggingIn  bool
	capability Capability
	fallback   func() string
}

// New returns a gate in the CHECKING state. capability may be nil; fallback
// supplies the environment credential and may be nil.
func New(capability Capability, fallback func() string) *Gate {
	if fallback == nil {
		fallback = func() string { return "" }
	}
	return &Gate{
		state:      models.StateChecking,
		capability: capability,
		fallback:   fallback,
	}
}

func (g *Gate) State() models.SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Authenticated() bool {
	return g.State() == models.StateAuthenticated
}

func (g *Gate) LoggingIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggingIn
}

// CheckInitialStatus resolves CHECKING to AUTHENTICATED or UNAUTHENTICATED.
// The host capability wins when present; otherwise a usable fallback
// credential authenticates. Any failure during the check resolves to
// UNAUTHENTICATED; this never returns an error.
func (g *Gate) CheckInitialStatus(ctx context.Context) models.SessionState {
	state := models.StateUnauthenticated
	if g.capability != nil {
		if ok, err := g.capability.HasCredential(ctx); err == nil && ok {
			state = models.StateAuthenticated
		}
	} else if ValidFallbackKey(g.fallback()) {
		state = models.StateAuthenticated
	}

	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
	return state
}

// Login opens the credential selector when one is available. It is a no-op
// while another login is in flight; the selector is invoked at most once per
// concurrent burst. The selector's completion cannot be observed, so the
// gate unlocks optimistically whether the action succeeded, failed, or was
// unavailable. Returns false when skipped because a login was in flight.
func (g *Gate) Login(ctx context.Context) bool {
	g.mu.Lock()
	if g.loggingIn {
		g.mu.Unlock()
		return false
	}
	g.loggingIn = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.loggingIn = false
		g.state = models.StateAuthenticated
		g.mu.Unlock()
	}()

	if g.capability != nil {
		// Fire and forget: no success/failure contract is relied upon.
		_ = g.capability.OpenSelector(ctx)
	}
	return true
}

// ForceReauthenticate re-locks the gate. Called by the error path when a
// real call fails with an authentication-class error.
func (g *Gate) ForceReauthenticate() {
	g.mu.Lock()
	g.state = models.StateUnauthenticated
	g.mu.Unlock()
}

// ValidFallbackKey reports whether an environment-supplied credential is
// usable: non-empty, not the literal "undefined" sentinel a misconfigured
// build injects, and not a foreign sk- token pasted for the wrong platform.
func ValidFallbackKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || key == "undefined" {
		return false
	}
	return !strings.HasPrefix(key, "sk-")
}
