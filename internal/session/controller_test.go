package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/audit"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/gate"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/rotation"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

type fakeProvider struct {
	mu        sync.Mutex
	imageFn   func(req *provider.ImageRequest) ([]byte, error)
	chatFn    func(req *provider.ChatRequest) (string, error)
	imageReqs []*provider.ImageRequest
	chatReqs  []*provider.ChatRequest
}

func (f *fakeProvider) Name() models.ProviderType { return models.ProviderType("fake") }

func (f *fakeProvider) GenerateImage(_ context.Context, req *provider.ImageRequest) ([]byte, error) {
	f.mu.Lock()
	f.imageReqs = append(f.imageReqs, req)
	fn := f.imageFn
	f.mu.Unlock()
	if fn == nil {
		return []byte("png"), nil
	}
	return fn(req)
}

func (f *fakeProvider) Converse(_ context.Context, req *provider.ChatRequest) (string, error) {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return "reply", nil
	}
	return fn(req)
}

func (f *fakeProvider) imageCalls() []*provider.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*provider.ImageRequest, len(f.imageReqs))
	copy(out, f.imageReqs)
	return out
}

func authGate(t *testing.T) *gate.Gate {
	t.Helper()
	g := gate.New(nil, func() string { return "AIzaSyTest" })
	if got := g.CheckInitialStatus(context.Background()); got != models.StateAuthenticated {
		t.Fatalf("CheckInitialStatus() = %v, want authenticated", got)
	}
	return g
}

func newTestController(t *testing.T, fake *fakeProvider, cfg *ControllerConfig) *Controller {
	t.Helper()
	pool, err := models.NewPool(
		[]string{"img-a", "img-b", "img-c"},
		[]string{"chat-a", "chat-b"})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	if cfg == nil {
		cfg = &ControllerConfig{}
	}
	if cfg.Gate == nil {
		cfg.Gate = authGate(t)
	}
	cfg.Provider = fake
	cfg.Executor = rotation.NewExecutor(&rotation.Config{
		Pool:  pool,
		Sleep: func(context.Context, time.Duration) error { return nil },
	})
	return NewController(cfg)
}

func TestController_ImageCreation(t *testing.T) {
	fake := &fakeProvider{}
	c := newTestController(t, fake, nil)
	logo := c.Logo()
	logo.ServerName = "Avalon"
	c.SetLogo(logo)

	res, err := c.SendMessage(context.Background(), "forge a logo for Avalon", nil)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if res.Kind != models.TaskImage || res.Refinement {
		t.Errorf("result = %+v, want image creation", res)
	}
	if res.Model != "img-a" {
		t.Errorf("result model = %q, want img-a", res.Model)
	}
	if c.HistoryLen() != 1 || c.HistoryCursor() != 0 {
		t.Errorf("history len/cursor = %d/%d, want 1/0", c.HistoryLen(), c.HistoryCursor())
	}
	if c.Status() != models.StatusSuccess {
		t.Errorf("Status() = %v, want SUCCESS", c.Status())
	}

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want greeting + user + assistant", len(msgs))
	}
	if msgs[2].Role != models.RoleAssistant {
		t.Errorf("last message role = %q, want assistant", msgs[2].Role)
	}

	reqs := fake.imageCalls()
	if len(reqs) != 1 {
		t.Fatalf("image calls = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if !strings.Contains(req.Prompt, "FORGING NEW BRAND IDENTITY") {
		t.Errorf("prompt missing creation clause: %q", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "Name: Avalon.") {
		t.Errorf("prompt missing server name: %q", req.Prompt)
	}
	if req.AspectRatio != "1:1" {
		t.Errorf("AspectRatio = %q, want 1:1", req.AspectRatio)
	}
	if req.SourceImage != nil {
		t.Error("creation request carried a source image")
	}
}

func TestController_RefinementUsesCurrentImage(t *testing.T) {
	fake := &fakeProvider{}
	first := true
	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		if first {
			first = false
			return []byte("v0"), nil
		}
		return []byte("v1"), nil
	}
	c := newTestController(t, fake, nil)

	if _, err := c.SendMessage(context.Background(), "create a dragon logo", nil); err != nil {
		t.Fatalf("first SendMessage() error = %v", err)
	}
	res, err := c.SendMessage(context.Background(), "make it blue", nil)
	if err != nil {
		t.Fatalf("second SendMessage() error = %v", err)
	}
	if !res.Refinement {
		t.Error("second send not classified as refinement")
	}
	if c.HistoryLen() != 2 || c.HistoryCursor() != 1 {
		t.Errorf("history len/cursor = %d/%d, want 2/1", c.HistoryLen(), c.HistoryCursor())
	}

	reqs := fake.imageCalls()
	if len(reqs) != 2 {
		t.Fatalf("image calls = %d, want 2", len(reqs))
	}
	if !bytes.Equal(reqs[1].SourceImage, []byte("v0")) {
		t.Errorf("refinement source image = %q, want v0", reqs[1].SourceImage)
	}
	if !strings.Contains(reqs[1].Prompt, "UPDATING LOGO ARTWORK") {
		t.Errorf("refinement prompt missing update clause: %q", reqs[1].Prompt)
	}
}

func TestController_CreateNewKeepsCurrentImageAsSeed(t *testing.T) {
	fake := &fakeProvider{}
	first := true
	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		if first {
			first = false
			return []byte("v0"), nil
		}
		return []byte("v1"), nil
	}
	c := newTestController(t, fake, nil)

	if _, err := c.SendMessage(context.Background(), "forge a logo", nil); err != nil {
		t.Fatalf("first SendMessage() error = %v", err)
	}
	res, err := c.SendMessage(context.Background(), "create new dragon logo", nil)
	if err != nil {
		t.Fatalf("second SendMessage() error = %v", err)
	}
	if res.Refinement {
		t.Error("explicit create new classified as refinement")
	}

	reqs := fake.imageCalls()
	if len(reqs) != 2 {
		t.Fatalf("image calls = %d, want 2", len(reqs))
	}
	if !strings.Contains(reqs[1].Prompt, "FORGING NEW BRAND IDENTITY") {
		t.Errorf("prompt missing creation clause: %q", reqs[1].Prompt)
	}
	// A fresh creation still sends what is on screen as the seed.
	if !bytes.Equal(reqs[1].SourceImage, []byte("v0")) {
		t.Errorf("creation source image = %q, want v0", reqs[1].SourceImage)
	}
}

func TestController_ChatLeavesHistoryUntouched(t *testing.T) {
	fake := &fakeProvider{}
	fake.chatFn = func(req *provider.ChatRequest) (string, error) {
		return "medieval serif suits you", nil
	}
	c := newTestController(t, fake, nil)

	// An image must exist first, otherwise every message routes to image.
	if _, err := c.SendMessage(context.Background(), "forge a logo", nil); err != nil {
		t.Fatalf("image SendMessage() error = %v", err)
	}

	res, err := c.SendMessage(context.Background(), "qual tema combina com um servidor medieval?", nil)
	if err != nil {
		t.Fatalf("chat SendMessage() error = %v", err)
	}
	if res.Kind != models.TaskChat {
		t.Fatalf("result kind = %q, want chat", res.Kind)
	}
	if res.Reply != "medieval serif suits you" {
		t.Errorf("reply = %q", res.Reply)
	}
	if c.HistoryLen() != 1 || c.HistoryCursor() != 0 {
		t.Errorf("chat touched image history: len/cursor = %d/%d", c.HistoryLen(), c.HistoryCursor())
	}
	if c.Status() != models.StatusIdle {
		t.Errorf("Status() after chat = %v, want IDLE", c.Status())
	}

	fake.mu.Lock()
	req := fake.chatReqs[0]
	fake.mu.Unlock()
	// The transcript must not include the message being replied to.
	for _, msg := range req.History {
		if msg.Content == "qual tema combina com um servidor medieval?" {
			t.Error("transcript contains the in-flight user message")
		}
	}
	if req.Message != "qual tema combina com um servidor medieval?" {
		t.Errorf("req.Message = %q", req.Message)
	}
}

func TestController_UndoThenGenerateTruncates(t *testing.T) {
	fake := &fakeProvider{}
	n := 0
	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		n++
		return []byte(fmt.Sprintf("v%d", n)), nil
	}
	c := newTestController(t, fake, nil)

	for i := 0; i < 3; i++ {
		if _, err := c.SendMessage(context.Background(), "gerar logo", nil); err != nil {
			t.Fatalf("SendMessage() error = %v", err)
		}
	}
	if !c.Undo() {
		t.Fatal("Undo() = false")
	}
	if c.HistoryCursor() != 1 {
		t.Fatalf("cursor after undo = %d, want 1", c.HistoryCursor())
	}

	if _, err := c.SendMessage(context.Background(), "mude a cor", nil); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if c.HistoryLen() != 3 || c.HistoryCursor() != 2 {
		t.Errorf("history len/cursor = %d/%d, want 3/2 after truncating push", c.HistoryLen(), c.HistoryCursor())
	}
	// The refinement ran against the undone-to image, not the discarded tip.
	reqs := fake.imageCalls()
	last := reqs[len(reqs)-1]
	if !bytes.Equal(last.SourceImage, []byte("v2")) {
		t.Errorf("refinement source = %q, want v2", last.SourceImage)
	}
}

func TestController_Unauthenticated(t *testing.T) {
	fake := &fakeProvider{}
	g := gate.New(nil, func() string { return "" })
	g.CheckInitialStatus(context.Background())
	c := newTestController(t, fake, &ControllerConfig{Gate: g})

	_, err := c.SendMessage(context.Background(), "forge a logo", nil)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("SendMessage() error = %v, want ErrUnauthenticated", err)
	}
	if len(fake.imageCalls()) != 0 {
		t.Error("provider was called while unauthenticated")
	}
	// The message was never sent, so it is not in the log.
	if len(c.Messages()) != 1 {
		t.Errorf("message count = %d, want greeting only", len(c.Messages()))
	}
}

func TestController_AuthFailureForcesGate(t *testing.T) {
	fake := &fakeProvider{}
	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		return nil, fmt.Errorf("generate: %w", provider.ErrUnauthorized)
	}
	g := authGate(t)
	c := newTestController(t, fake, &ControllerConfig{Gate: g})

	_, err := c.SendMessage(context.Background(), "forge a logo", nil)
	if !errors.Is(err, provider.ErrUnauthorized) {
		t.Fatalf("SendMessage() error = %v, want ErrUnauthorized", err)
	}
	if g.Authenticated() {
		t.Error("gate still authenticated after auth failure")
	}
	if c.Status() != models.StatusError {
		t.Errorf("Status() = %v, want ERROR", c.Status())
	}
	// Auth errors abort rotation on the first attempt.
	if got := len(fake.imageCalls()); got != 1 {
		t.Errorf("image calls = %d, want 1", got)
	}
	// The user message stays in the log even though the call failed.
	if len(c.Messages()) != 2 {
		t.Errorf("message count = %d, want greeting + user", len(c.Messages()))
	}
}

func TestController_QuotaSchedulesRetry(t *testing.T) {
	fake := &fakeProvider{}
	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		return nil, fmt.Errorf("generate: %w", provider.ErrQuotaExhausted)
	}
	c := newTestController(t, fake, &ControllerConfig{RetryDelay: time.Hour})

	_, err := c.SendMessage(context.Background(), "forge a logo", nil)
	if !errors.Is(err, ErrQuotaRetryScheduled) {
		t.Fatalf("SendMessage() error = %v, want ErrQuotaRetryScheduled", err)
	}
	// The whole pool was rotated through before giving up.
	if got := len(fake.imageCalls()); got != 3 {
		t.Errorf("image calls = %d, want 3", got)
	}
	if !c.Retrying() {
		t.Error("Retrying() = false with a scheduled retry pending")
	}
	if c.Status() != models.StatusLoading {
		t.Errorf("Status() = %v, want LOADING while retrying", c.Status())
	}

	c.Reset()
	if c.Retrying() {
		t.Error("Reset() did not cancel the scheduled retry")
	}
	if c.Status() != models.StatusIdle || c.HistoryLen() != 0 {
		t.Errorf("Reset() left status %v, history len %d", c.Status(), c.HistoryLen())
	}
	if len(c.Messages()) != 1 {
		t.Errorf("Reset() left %d messages, want 1", len(c.Messages()))
	}
}

func TestController_ScheduledRetryFires(t *testing.T) {
	fake := &fakeProvider{}
	calls := 0
	var mu sync.Mutex
	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= 3 {
			return nil, fmt.Errorf("generate: %w", provider.ErrQuotaExhausted)
		}
		return []byte("png"), nil
	}

	done := make(chan error, 1)
	c := newTestController(t, fake, &ControllerConfig{
		RetryDelay: 10 * time.Millisecond,
		OnRetry:    func(_ *Result, err error) { done <- err },
	})

	_, err := c.SendMessage(context.Background(), "forge a logo", nil)
	if !errors.Is(err, ErrQuotaRetryScheduled) {
		t.Fatalf("SendMessage() error = %v, want ErrQuotaRetryScheduled", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("scheduled retry error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled retry never fired")
	}

	if c.Status() != models.StatusSuccess {
		t.Errorf("Status() = %v, want SUCCESS after retry", c.Status())
	}
	if c.HistoryLen() != 1 {
		t.Errorf("history len = %d, want 1", c.HistoryLen())
	}
	// The retry re-sends the same request without duplicating the user turn.
	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Errorf("message count = %d, want greeting + user + assistant", len(msgs))
	}
}

func TestController_QuickGenerate(t *testing.T) {
	fake := &fakeProvider{}
	c := newTestController(t, fake, nil)

	logo := c.Logo()
	logo.ServerName = ""
	c.SetLogo(logo)
	if _, err := c.QuickGenerate(context.Background()); !errors.Is(err, models.ErrEmptyServerName) {
		t.Fatalf("QuickGenerate() error = %v, want ErrEmptyServerName", err)
	}

	logo.ServerName = "Avalon"
	c.SetLogo(logo)
	res, err := c.QuickGenerate(context.Background())
	if err != nil {
		t.Fatalf("QuickGenerate() error = %v", err)
	}
	if res.Kind != models.TaskImage {
		t.Errorf("result kind = %q, want image", res.Kind)
	}
	reqs := fake.imageCalls()
	if len(reqs) != 1 {
		t.Fatalf("image calls = %d, want 1", len(reqs))
	}
	if !strings.Contains(reqs[0].Prompt, "Forje uma logomarca 3D épica para Avalon") {
		t.Errorf("prompt missing quick-generate clause: %q", reqs[0].Prompt)
	}
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func TestController_AuditTrail(t *testing.T) {
	fake := &fakeProvider{}
	log := &recordingAudit{}
	c := newTestController(t, fake, &ControllerConfig{Audit: log})

	if _, err := c.SendMessage(context.Background(), "forge a logo", nil); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	fake.imageFn = func(*provider.ImageRequest) ([]byte, error) {
		return nil, fmt.Errorf("generate: %w", provider.ErrUnauthorized)
	}
	c.SendMessage(context.Background(), "mude a cor", nil)

	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(log.entries))
	}
	if log.entries[0].Operation != "create" || log.entries[0].Disposition != "ok" {
		t.Errorf("entries[0] = %+v, want create/ok", log.entries[0])
	}
	if log.entries[1].Operation != "refine" || log.entries[1].Disposition != "auth" {
		t.Errorf("entries[1] = %+v, want refine/auth", log.entries[1])
	}
	if log.entries[1].Model != "img-a" {
		t.Errorf("entries[1].Model = %q, want img-a", log.entries[1].Model)
	}
}
