package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrAPIKeyRequired   = errors.New("API key is required")
	ErrEmptyResponse    = errors.New("model returned no usable content")
	ErrUnauthorized     = errors.New("credential rejected by backend")
	ErrQuotaExhausted   = errors.New("backend quota exhausted")
)

// ImageRequest describes one image generation or refinement call.
type ImageRequest struct {
	Model       string
	Prompt      string
	SourceImage []byte // optional seed image (upload or current history image)
	AspectRatio string
	ImageSize   string // optional resolution hint for higher-tier models
}

// ChatRequest describes one conversational call. History is the prior
// transcript; Message is the new user turn, sent separately.
type ChatRequest struct {
	Model   string
	System  string
	Message string
	History []models.Message
}

// Provider is a generative backend consumed as a black box. Implementations
// must re-read the credential at the start of every call rather than caching
// it at construction time, so a key refreshed mid-session is honored on the
// very next attempt.
type Provider interface {
	Name() models.ProviderType
	GenerateImage(ctx context.Context, req *ImageRequest) ([]byte, error)
	Converse(ctx context.Context, req *ChatRequest) (string, error)
}

// Config carries provider construction parameters. APIKey is a source, not
// a value: it is invoked per call.
type Config struct {
	APIKey     func() string
	BaseURL    string
	TimeoutSec int
	Verbose    bool
}

// Factory holds the registered provider implementations.
type Factory struct {
	providers map[models.ProviderType]Provider
}

func NewFactory() *Factory {
	return &Factory{providers: make(map[models.ProviderType]Provider)}
}

func (f *Factory) Register(p Provider) {
	f.providers[p.Name()] = p
}

func (f *Factory) Get(providerType models.ProviderType) (Provider, error) {
	p, ok := f.providers[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerType)
	}
	return p, nil
}

func (f *Factory) ListProviders() []models.ProviderType {
	types := make([]models.ProviderType, 0, len(f.providers))
	for t := range f.providers {
		types = append(types, t)
	}
	return types
}
