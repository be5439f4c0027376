// Package gemini implements the provider interface on the Gemini API via
// the official genai SDK.
package gemini

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

type Provider struct {
	apiKey  func() string
	verbose bool
	logw    io.Writer
}

func New(cfg *provider.Config) (*Provider, error) {
	if cfg.APIKey == nil {
		return nil, provider.ErrAPIKeyRequired
	}
	return &Provider{
		apiKey:  cfg.APIKey,
		verbose: cfg.Verbose,
		logw:    os.Stderr,
	}, nil
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderGemini
}

// client builds a fresh SDK client. Constructed per call, never cached: a
// credential refreshed mid-session must be honored on the very next attempt.
func (p *Provider) client(ctx context.Context) (*genai.Client, error) {
	key := strings.TrimSpace(p.apiKey())
	if key == "" {
		return nil, provider.ErrAPIKeyRequired
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
}

func (p *Provider) GenerateImage(ctx context.Context, req *provider.ImageRequest) ([]byte, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.SourceImage) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/png", Data: req.SourceImage},
		})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if req.AspectRatio != "" || req.ImageSize != "" {
		config.ImageConfig = &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		}
	}

	p.logImageRequest(req)
	res, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	p.logResponse(res)
	return extractImage(res)
}

func (p *Provider) Converse(ctx context.Context, req *provider.ChatRequest) (string, error) {
	client, err := p.client(ctx)
	if err != nil {
		return "", err
	}

	contents := historyContents(req.History)
	contents = append(contents, genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromText(req.Message)}, genai.RoleUser))

	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	p.logChatRequest(req)
	res, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini converse: %w", err)
	}
	p.logResponse(res)
	return extractText(res)
}

// The SDK owns the wire, so verbose logging reports the call parameters and
// the response shape. The credential is never logged.
func (p *Provider) logImageRequest(req *provider.ImageRequest) {
	if !p.verbose {
		return
	}
	fmt.Fprintln(p.logw, "--- REQUEST ---")
	fmt.Fprintf(p.logw, "  model: %s\n", req.Model)
	fmt.Fprintf(p.logw, "  prompt: %s\n", req.Prompt)
	if len(req.SourceImage) > 0 {
		fmt.Fprintf(p.logw, "  source image: [%d bytes]\n", len(req.SourceImage))
	}
	if req.AspectRatio != "" {
		fmt.Fprintf(p.logw, "  aspect ratio: %s\n", req.AspectRatio)
	}
	if req.ImageSize != "" {
		fmt.Fprintf(p.logw, "  image size: %s\n", req.ImageSize)
	}
	fmt.Fprintln(p.logw, "---------------")
}

func (p *Provider) logChatRequest(req *provider.ChatRequest) {
	if !p.verbose {
		return
	}
	fmt.Fprintln(p.logw, "--- REQUEST ---")
	fmt.Fprintf(p.logw, "  model: %s\n", req.Model)
	fmt.Fprintf(p.logw, "  history: %d turns\n", len(req.History))
	fmt.Fprintf(p.logw, "  message: %s\n", req.Message)
	fmt.Fprintln(p.logw, "---------------")
}

func (p *Provider) logResponse(res *genai.GenerateContentResponse) {
	if !p.verbose {
		return
	}
	fmt.Fprintln(p.logw, "--- RESPONSE ---")
	fmt.Fprintf(p.logw, "  candidates: %d\n", len(res.Candidates))
	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, part := range res.Candidates[0].Content.Parts {
			if part.InlineData != nil {
				fmt.Fprintf(p.logw, "  inline data: %s [%d bytes]\n",
					part.InlineData.MIMEType, len(part.InlineData.Data))
			}
			if part.Text != "" {
				fmt.Fprintf(p.logw, "  text: [%d chars]\n", len(part.Text))
			}
		}
	}
	fmt.Fprintln(p.logw, "----------------")
}

// historyContents maps the transcript into SDK content, assistant turns as
// the model role.
func historyContents(history []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromText(msg.Content)}, role))
	}
	return contents
}

// extractImage returns the first inline image part. When the model answered
// with text only, a snippet of that text is attached to the error so content
// filter refusals are visible to the user.
func extractImage(res *genai.GenerateContentResponse) ([]byte, error) {
	var textOut strings.Builder
	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, part := range res.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
			if part.Text != "" {
				textOut.WriteString(part.Text)
			}
		}
	}
	if s := strings.TrimSpace(textOut.String()); s != "" {
		if len(s) > 512 {
			s = s[:512] + "..."
		}
		return nil, fmt.Errorf("%w: %s", provider.ErrEmptyResponse, s)
	}
	return nil, provider.ErrEmptyResponse
}

func extractText(res *genai.GenerateContentResponse) (string, error) {
	var out strings.Builder
	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, part := range res.Candidates[0].Content.Parts {
			if part.Text != "" {
				out.WriteString(part.Text)
			}
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", provider.ErrEmptyResponse
	}
	return out.String(), nil
}
