// Package openrouter implements the provider interface on the OpenRouter
// gateway. Chat goes through the OpenAI-compatible SDK; image generation
// uses the chat/completions endpoint directly because image parts in the
// response are not covered by the SDK's typed surface.
package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 120 * time.Second
)

type Provider struct {
	apiKey     func() string
	baseURL    string
	httpClient *http.Client
	verbose    bool
	logw       io.Writer
}

func New(cfg *provider.Config) (*Provider, error) {
	if cfg.APIKey == nil {
		return nil, provider.ErrAPIKeyRequired
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Provider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		verbose: cfg.Verbose,
		logw:    os.Stderr,
	}, nil
}

func (p *Provider) Name() models.ProviderType {
	return models.ProviderOpenRouter
}

func (p *Provider) Converse(ctx context.Context, req *provider.ChatRequest) (string, error) {
	key := strings.TrimSpace(p.apiKey())
	if key == "" {
		return "", provider.ErrAPIKeyRequired
	}
	client := openai.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(p.baseURL),
		option.WithHTTPClient(p.httpClient),
	)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.History {
		if msg.Role == models.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Message))

	if p.verbose {
		fmt.Fprintln(p.logw, "--- REQUEST ---")
		fmt.Fprintf(p.logw, "POST %s/chat/completions\n", strings.TrimRight(p.baseURL, "/"))
		fmt.Fprintf(p.logw, "  model: %s\n", mapModel(req.Model))
		fmt.Fprintf(p.logw, "  messages: %d\n", len(messages))
		fmt.Fprintln(p.logw, "---------------")
	}

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(mapModel(req.Model)),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter converse: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", provider.ErrEmptyResponse
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", provider.ErrEmptyResponse
	}
	return text, nil
}

func (p *Provider) GenerateImage(ctx context.Context, req *provider.ImageRequest) ([]byte, error) {
	content := []any{
		map[string]any{"type": "text", "text": req.Prompt},
	}
	if len(req.SourceImage) > 0 {
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": toDataURL("image/png", req.SourceImage)},
		})
	}

	body := map[string]any{
		"model":      mapModel(req.Model),
		"messages":   []any{map[string]any{"role": "user", "content": content}},
		"modalities": []string{"image", "text"},
	}

	m, err := p.postJSON(ctx, "chat/completions", body)
	if err != nil {
		return nil, err
	}
	if errObj, ok := m["error"].(map[string]any); ok {
		if msg, _ := errObj["message"].(string); strings.TrimSpace(msg) != "" {
			return nil, fmt.Errorf("openrouter generate: %s", msg)
		}
		return nil, fmt.Errorf("openrouter generate: unspecified error")
	}

	if img, ok := parseImageFromChat(m); ok {
		return img, nil
	}
	if txt := parseTextFromChat(m); txt != "" {
		if len(txt) > 512 {
			txt = txt[:512] + "..."
		}
		return nil, fmt.Errorf("%w: %s", provider.ErrEmptyResponse, txt)
	}
	return nil, provider.ErrEmptyResponse
}

func (p *Provider) postJSON(ctx context.Context, path string, body any) (map[string]any, error) {
	key := strings.TrimSpace(p.apiKey())
	if key == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("HTTP-Referer", "http://localhost")
	httpReq.Header.Set("X-Title", "logoforge")

	p.logRequest(http.MethodPost, url, httpReq.Header, jsonData)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	p.logResponse(resp.StatusCode, raw)

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		preview := string(raw)
		if len(preview) > 2048 {
			preview = preview[:2048] + "... [truncated]"
		}
		return nil, fmt.Errorf("openrouter decode failed: %w; status=%d; body=%s", err, resp.StatusCode, preview)
	}
	if resp.StatusCode != http.StatusOK {
		if _, hasErr := out["error"]; !hasErr {
			return nil, fmt.Errorf("openrouter: status %d", resp.StatusCode)
		}
	}
	return out, nil
}

func (p *Provider) logRequest(method, url string, headers http.Header, body []byte) {
	if !p.verbose {
		return
	}
	fmt.Fprintln(p.logw, "--- REQUEST ---")
	fmt.Fprintf(p.logw, "%s %s\n", method, url)
	fmt.Fprintln(p.logw, "Headers:")
	for key, values := range headers {
		for _, value := range values {
			if strings.ToLower(key) == "authorization" {
				value = "[REDACTED]"
			}
			fmt.Fprintf(p.logw, "  %s: %s\n", key, value)
		}
	}
	fmt.Fprintln(p.logw, "Body:")
	fmt.Fprintf(p.logw, "  %s\n", truncateForLog(body))
	fmt.Fprintln(p.logw, "---------------")
}

func (p *Provider) logResponse(status int, body []byte) {
	if !p.verbose {
		return
	}
	fmt.Fprintln(p.logw, "--- RESPONSE ---")
	fmt.Fprintf(p.logw, "Status: %d\n", status)
	fmt.Fprintln(p.logw, "Body:")
	fmt.Fprintf(p.logw, "  %s\n", truncateForLog(body))
	fmt.Fprintln(p.logw, "----------------")
}

func truncateForLog(b []byte) string {
	const limit = 2048
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "... [truncated]"
}

// mapModel namespaces bare Gemini model identifiers for the gateway.
func mapModel(model string) string {
	if strings.Contains(model, "/") {
		return model
	}
	return "google/" + model
}

func toDataURL(mime string, b []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(b))
}

func decodeDataURL(u string) ([]byte, bool) {
	if !strings.HasPrefix(u, "data:") {
		return nil, false
	}
	i := strings.IndexByte(u, ',')
	if i <= 0 {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(u[i+1:])
	if err != nil {
		return nil, false
	}
	return b, true
}

// parseImageFromChat handles the shapes gateway providers actually return:
// images attached on message.images, image parts inside an array content,
// or a bare data URL as the content string.
func parseImageFromChat(m map[string]any) ([]byte, bool) {
	choices, _ := m["choices"].([]any)
	if len(choices) == 0 {
		return nil, false
	}
	choice, _ := choices[0].(map[string]any)
	if choice == nil {
		return nil, false
	}
	msg, _ := choice["message"].(map[string]any)
	if msg == nil {
		return nil, false
	}

	if imgs, _ := msg["images"].([]any); len(imgs) > 0 {
		if im0, _ := imgs[0].(map[string]any); im0 != nil {
			if iu, _ := im0["image_url"].(map[string]any); iu != nil {
				if u, _ := iu["url"].(string); u != "" {
					if b, ok := decodeDataURL(u); ok {
						return b, true
					}
				}
			}
		}
	}

	if parts, ok := msg["content"].([]any); ok {
		for _, part := range parts {
			pobj, _ := part.(map[string]any)
			if pobj == nil {
				continue
			}
			if t, _ := pobj["type"].(string); t != "image_url" && t != "image" && t != "output_image" {
				continue
			}
			if iu, _ := pobj["image_url"].(map[string]any); iu != nil {
				if u, _ := iu["url"].(string); u != "" {
					if b, ok := decodeDataURL(u); ok {
						return b, true
					}
				}
			}
			if s, _ := pobj["b64_json"].(string); s != "" {
				if b, err := base64.StdEncoding.DecodeString(s); err == nil {
					return b, true
				}
			}
		}
	}

	if s, _ := msg["content"].(string); s != "" {
		if b, ok := decodeDataURL(s); ok {
			return b, true
		}
	}
	return nil, false
}

func parseTextFromChat(m map[string]any) string {
	choices, _ := m["choices"].([]any)
	if len(choices) == 0 {
		return ""
	}
	choice, _ := choices[0].(map[string]any)
	if choice == nil {
		return ""
	}
	msg, _ := choice["message"].(map[string]any)
	if msg == nil {
		return ""
	}
	if s, _ := msg["content"].(string); strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if parts, ok := msg["content"].([]any); ok {
		var sb strings.Builder
		for _, part := range parts {
			pobj, _ := part.(map[string]any)
			if pobj == nil {
				continue
			}
			if t, _ := pobj["type"].(string); t == "text" || t == "output_text" {
				if s, _ := pobj["text"].(string); s != "" {
					sb.WriteString(s)
				}
			}
		}
		return strings.TrimSpace(sb.String())
	}
	return ""
}
