package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/audit"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/classify"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/gate"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/prompt"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/provider"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/rotation"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

const (
	greetingMessage = "Bem-vindo ao L2 Gerador-Logo. Estou pronto para forjar sua identidade épica. O que vamos criar hoje?"
	resetMessage    = "Canais de conexão resetados. Histórico limpo para otimização."
	successMessage  = "Forja concluída com sucesso!"

	// quotaRetryDelay is the pause before a full re-submission after the
	// rotation budget is exhausted by quota failures.
	quotaRetryDelay = 3 * time.Second

	aspectRatio = "1:1"
)

var (
	// ErrUnauthenticated is returned when a send is attempted before the
	// gate has unlocked.
	ErrUnauthenticated = errors.New("session is not authenticated, login required")

	// ErrQuotaRetryScheduled signals that the request failed on quota but a
	// delayed automatic re-submission is pending. Not a terminal failure.
	ErrQuotaRetryScheduled = errors.New("quota exhausted, automatic retry scheduled")
)

// AuditLog records completed pipelines. Satisfied by *audit.Store.
type AuditLog interface {
	Record(ctx context.Context, entry *audit.Entry) error
}

// Result is the outcome of one successful send.
type Result struct {
	Kind       models.TaskKind
	Refinement bool
	Model      string
	Reply      string
	Image      []byte
}

// ControllerConfig wires a Controller. Gate, Executor and Provider are
// required; the rest have working defaults.
type ControllerConfig struct {
	Gate     *gate.Gate
	Executor *rotation.Executor
	Intent   *classify.Intent
	Provider provider.Provider
	Audit    AuditLog // optional

	// OnRetry observes the outcome of a scheduled quota re-submission,
	// which otherwise completes on a background timer with no caller.
	OnRetry func(res *Result, err error)

	// BaseCtx bounds scheduled re-submissions. Defaults to Background.
	BaseCtx context.Context

	// RetryDelay overrides the pause before a scheduled re-submission.
	// Zero means quotaRetryDelay.
	RetryDelay time.Duration
}

// Controller runs the send pipeline and owns all session state. Sends are
// serialized through a single mutex: a second message submitted while one is
// in flight waits instead of starting an overlapping pipeline.
type Controller struct {
	mu sync.Mutex

	conv    *Conversation
	history *ImageHistory
	logo    models.LogoConfig
	status  models.GenerationStatus

	retrying   bool
	retryTimer *time.Timer

	gate     *gate.Gate
	executor *rotation.Executor
	intent   *classify.Intent
	prov     provider.Provider
	auditLog AuditLog
	onRetry  func(res *Result, err error)
	baseCtx  context.Context

	retryDelay time.Duration
}

func NewController(cfg *ControllerConfig) *Controller {
	c := &Controller{
		conv:     NewConversation(greetingMessage),
		history:  NewImageHistory(),
		logo:     models.DefaultLogoConfig(),
		status:   models.StatusIdle,
		gate:     cfg.Gate,
		executor: cfg.Executor,
		intent:   cfg.Intent,
		prov:     cfg.Provider,
		auditLog: cfg.Audit,
		onRetry:  cfg.OnRetry,
		baseCtx:  cfg.BaseCtx,
	}
	if c.executor == nil {
		c.executor = rotation.NewExecutor(&rotation.Config{})
	}
	if c.intent == nil {
		c.intent = classify.NewIntent(nil, nil)
	}
	if c.baseCtx == nil {
		c.baseCtx = context.Background()
	}
	c.retryDelay = cfg.RetryDelay
	if c.retryDelay <= 0 {
		c.retryDelay = quotaRetryDelay
	}
	return c
}

// SendMessage runs the full pipeline for one user turn: classify intent,
// build the prompt, execute with model rotation, then apply the outcome to
// the conversation and image history. A pending scheduled retry is cancelled
// first; the new message supersedes it.
func (c *Controller) SendMessage(ctx context.Context, text string, upload []byte) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRetryLocked()
	return c.send(ctx, text, upload, true)
}

// send runs the pipeline with the mutex held. appendUser is false for
// scheduled re-submissions, whose user message is already in the log.
func (c *Controller) send(ctx context.Context, text string, upload []byte, appendUser bool) (*Result, error) {
	if !c.gate.Authenticated() {
		return nil, ErrUnauthenticated
	}

	decision := c.intent.Classify(classify.Input{
		Text:            text,
		HasUpload:       upload != nil,
		HasCurrentImage: c.history.HasCurrent(),
	})

	// Snapshot before appending: the transcript sent to the backend must
	// not include the message it is replying to.
	transcript := c.conv.Messages()
	if appendUser {
		c.conv.AppendUser(text, upload)
	} else if n := len(transcript); n > 0 && transcript[n-1].Role == models.RoleUser {
		// Re-submission: the user turn is already in the log.
		transcript = transcript[:n-1]
	}
	c.status = models.StatusLoading

	started := time.Now()
	var lastModel string

	var result *Result
	var err error
	if decision.Kind == models.TaskImage {
		// The upload wins; otherwise the current version rides along as the
		// seed even on a fresh creation, so "create new" keeps the context
		// of what is on screen.
		source := upload
		if source == nil {
			source = c.history.Current()
		}
		var img []byte
		img, err = rotation.Execute(ctx, c.executor, models.TaskImage,
			func(ctx context.Context, model string, degraded bool) ([]byte, error) {
				lastModel = model
				return c.prov.GenerateImage(ctx, &provider.ImageRequest{
					Model: model,
					Prompt: prompt.BuildImagePrompt(prompt.ImageTask{
						Text:       text,
						Config:     c.logo,
						Refinement: decision.Refinement,
						Degraded:   degraded,
					}),
					SourceImage: source,
					AspectRatio: aspectRatio,
					ImageSize:   models.ResolutionHint(model),
				})
			})
		if err == nil {
			c.history.Push(img)
			c.conv.AppendAssistant(successMessage)
			c.status = models.StatusSuccess
			result = &Result{
				Kind:       models.TaskImage,
				Refinement: decision.Refinement,
				Model:      lastModel,
				Reply:      successMessage,
				Image:      img,
			}
		}
	} else {
		var reply string
		reply, err = rotation.Execute(ctx, c.executor, models.TaskChat,
			func(ctx context.Context, model string, degraded bool) (string, error) {
				lastModel = model
				return c.prov.Converse(ctx, &provider.ChatRequest{
					Model:   model,
					System:  prompt.BuildChatSystem(degraded),
					Message: text,
					History: prompt.Transcript(transcript, degraded),
				})
			})
		if err == nil {
			c.conv.AppendAssistant(reply)
			c.status = models.StatusIdle
			result = &Result{
				Kind:  models.TaskChat,
				Model: lastModel,
				Reply: reply,
			}
		}
	}

	c.record(ctx, decision, lastModel, err, time.Since(started))
	if err == nil {
		return result, nil
	}
	return nil, c.fail(err, text, upload)
}

// fail maps the classified failure onto session state. Authentication
// failures re-lock the gate; quota failures keep the loading state and
// schedule a delayed re-submission of the same request.
func (c *Controller) fail(err error, text string, upload []byte) error {
	switch classify.ClassifyError(err) {
	case classify.DispositionAuth:
		c.gate.ForceReauthenticate()
		c.status = models.StatusError
		return err
	case classify.DispositionQuota:
		c.scheduleRetryLocked(text, upload)
		return fmt.Errorf("%w: %v", ErrQuotaRetryScheduled, err)
	default:
		c.status = models.StatusError
		return err
	}
}

func (c *Controller) scheduleRetryLocked(text string, upload []byte) {
	c.retrying = true
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.retrying {
			// Cancelled by a reset or a newer send.
			return
		}
		c.retrying = false
		c.retryTimer = nil
		res, err := c.send(c.baseCtx, text, upload, false)
		if c.onRetry != nil {
			c.onRetry(res, err)
		}
	})
}

// stopRetryLocked cancels a pending scheduled re-submission.
func (c *Controller) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.retrying = false
}

func (c *Controller) record(ctx context.Context, decision classify.Decision, model string, err error, elapsed time.Duration) {
	if c.auditLog == nil {
		return
	}
	operation := "chat"
	if decision.Kind == models.TaskImage {
		operation = "create"
		if decision.Refinement {
			operation = "refine"
		}
	}
	disposition := "ok"
	if err != nil {
		disposition = classify.ClassifyError(err).String()
	}
	// Best effort: the audit trail never fails a user request.
	_ = c.auditLog.Record(ctx, &audit.Entry{
		TaskKind:    string(decision.Kind),
		Operation:   operation,
		Model:       model,
		Disposition: disposition,
		DurationMS:  elapsed.Milliseconds(),
	})
}

// QuickGenerate forges a logo straight from the branding configuration
// without free-form input. Requires a server name.
func (c *Controller) QuickGenerate(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logo.ServerName == "" {
		return nil, models.ErrEmptyServerName
	}
	c.stopRetryLocked()
	text := fmt.Sprintf("Forje uma logomarca 3D épica para %s", c.logo.ServerName)
	return c.send(ctx, text, nil, true)
}

// Undo steps the image history cursor back one version. Reports whether a
// step happened.
func (c *Controller) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Undo()
}

// Reset clears the session: conversation back to a single greeting, image
// history emptied, any pending scheduled retry cancelled.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRetryLocked()
	c.conv.Reset(resetMessage)
	c.history.Reset()
	c.status = models.StatusIdle
}

func (c *Controller) Status() models.GenerationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Retrying reports whether a delayed quota re-submission is pending.
func (c *Controller) Retrying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retrying
}

func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

func (c *Controller) CurrentImage() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Current()
}

func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanUndo()
}

func (c *Controller) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Len()
}

func (c *Controller) HistoryCursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Cursor()
}

func (c *Controller) Logo() models.LogoConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logo
}

func (c *Controller) SetLogo(cfg models.LogoConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logo = cfg
}

func (c *Controller) Gate() *gate.Gate {
	return c.gate
}
