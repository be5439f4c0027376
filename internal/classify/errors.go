package classify

import (
	"errors"
	"strings"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider"
)

// Disposition is what the orchestration layer does with a failure.
type Disposition int

const (
	// DispositionFatal surfaces immediately, no retry, no state change.
	DispositionFatal Disposition = iota
	// DispositionQuota is transient: retry with backoff and model rotation.
	DispositionQuota
	// DispositionAuth aborts rotation and forces the session gate closed.
	DispositionAuth
	// DispositionEmpty means the call succeeded but carried no usable
	// image/text. Treated as retryable like quota: empty responses are
	// plausibly a model-specific content-filter quirk.
	DispositionEmpty
)

func (d Disposition) String() string {
	switch d {
	case DispositionQuota:
		return "quota"
	case DispositionAuth:
		return "auth"
	case DispositionEmpty:
		return "empty"
	default:
		return "fatal"
	}
}

// Retryable reports whether rotation may try the next pool entry.
func (d Disposition) Retryable() bool {
	return d == DispositionQuota || d == DispositionEmpty
}

var authMarkers = []string{
	"requested entity was not found",
	"api_key_invalid",
	"api key not valid",
	"invalid credential",
	"unauthorized",
	"permission denied",
	"401",
	"403",
}

var quotaMarkers = []string{
	"resource_exhausted",
	"resource exhausted",
	"rate limit",
	"quota",
	"429",
}

// ClassifyError maps an opaque backend failure onto a Disposition. Typed
// sentinels win over message inspection; the marker lists cover errors that
// arrive as raw API messages.
func ClassifyError(err error) Disposition {
	if err == nil {
		return DispositionFatal
	}
	switch {
	case errors.Is(err, provider.ErrUnauthorized):
		return DispositionAuth
	case errors.Is(err, provider.ErrQuotaExhausted):
		return DispositionQuota
	case errors.Is(err, provider.ErrEmptyResponse):
		return DispositionEmpty
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return DispositionAuth
		}
	}
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return DispositionQuota
		}
	}
	return DispositionFatal
}
