package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/replybot/internal/domain/model"
	"github.com/ericfisherdev/replybot/internal/domain/port/driven"
)

// StoppedMessage is returned by Stop once the running loop has been signaled.
const StoppedMessage = "Auto-reply stopped"

// FallbackModels is offered when the provider's model list cannot be fetched.
var FallbackModels = []string{"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o"}

// StartRequest carries the user's choices for a new run.
type StartRequest struct {
	Prompt string
	Model  string
}

// Controller is the entry point for the control surfaces: it edits settings,
// starts and stops runs, and reports status. At most one run is active.
type Controller struct {
	settings     driven.SettingsStore
	browser      driven.Browser
	loop         *AutomationLoop
	catalog      driven.ModelCatalog
	replyLog     driven.ReplyLogStore
	defaultModel string
	logger       *slog.Logger

	// runs outlive the request that started them and end with Close.
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu      sync.Mutex
	current *Run
}

// NewController creates a Controller. catalog and replyLog may be nil.
func NewController(
	settings driven.SettingsStore,
	browser driven.Browser,
	loop *AutomationLoop,
	catalog driven.ModelCatalog,
	replyLog driven.ReplyLogStore,
	defaultModel string,
	logger *slog.Logger,
) *Controller {
	runCtx, cancel := context.WithCancel(context.Background())
	return &Controller{
		settings:     settings,
		browser:      browser,
		loop:         loop,
		catalog:      catalog,
		replyLog:     replyLog,
		defaultModel: defaultModel,
		logger:       logger,
		runCtx:       runCtx,
		cancelRun:    cancel,
	}
}

// LoadSettings returns the stored settings with the prompt defaulted.
func (c *Controller) LoadSettings(ctx context.Context) (model.Settings, error) {
	values, err := c.settings.Get(ctx, model.SettingAPIKey, model.SettingPrompt)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	s := model.Settings{
		APIKey: values[model.SettingAPIKey],
		Prompt: values[model.SettingPrompt],
	}
	s.Prompt = s.PromptOrDefault()
	return s, nil
}

// SaveAPIKey stores the trimmed key. An empty key is rejected and nothing is written.
func (c *Controller) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.ErrAPIKeyNotSet
	}

	if err := c.settings.Set(ctx, map[string]string{model.SettingAPIKey: key}); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	c.logger.InfoContext(ctx, "api key saved")
	return nil
}

// SavePrompt stores the trimmed prompt. An empty prompt is rejected.
func (c *Controller) SavePrompt(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return model.ErrPromptNotSet
	}

	if err := c.settings.Set(ctx, map[string]string{model.SettingPrompt: prompt}); err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}
	c.logger.InfoContext(ctx, "prompt saved")
	return nil
}

// Start validates the settings, persists the prompt, attaches to the active
// page and launches a new run in the background. It returns the initial
// status of that run.
func (c *Controller) Start(ctx context.Context, req StartRequest) (model.RunStatus, error) {
	settings, err := c.LoadSettings(ctx)
	if err != nil {
		return model.RunStatus{}, err
	}
	if !settings.HasAPIKey() {
		return model.RunStatus{}, model.ErrAPIKeyNotSet
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return model.RunStatus{}, model.ErrPromptNotSet
	}

	modelName := strings.TrimSpace(req.Model)
	if modelName == "" {
		modelName = c.defaultModel
	}

	if c.running() {
		return model.RunStatus{}, model.ErrAlreadyRunning
	}

	if err := c.settings.Set(ctx, map[string]string{model.SettingPrompt: prompt}); err != nil {
		return model.RunStatus{}, fmt.Errorf("save prompt: %w", err)
	}

	// Resolving the page may dial or launch Chrome, so c.mu is not held here.
	page, err := c.browser.ActivePage(ctx)
	if err != nil {
		return model.RunStatus{}, fmt.Errorf("resolve active page: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.active() {
		return model.RunStatus{}, model.ErrAlreadyRunning
	}

	run := newRun(prompt, modelName, time.Now())
	c.current = run
	status := run.Status()
	go c.loop.Run(c.runCtx, page, run)

	c.logger.InfoContext(ctx, "auto-reply run launched", "url", page.URL(), "model", modelName)
	return status, nil
}

// Stop signals the active run. The run halts at its next iteration boundary.
func (c *Controller) Stop() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current.active() {
		return "", model.ErrNotRunning
	}

	c.current.RequestStop()
	c.logger.Info("auto-reply stop requested")
	return StoppedMessage, nil
}

func (c *Controller) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.active()
}

// Status returns the status of the current or most recent run.
func (c *Controller) Status() model.RunStatus {
	c.mu.Lock()
	run := c.current
	c.mu.Unlock()

	if run == nil {
		return model.RunStatus{State: model.LoopStateIdle}
	}
	return run.Status()
}

// Models lists the models offered for selection, falling back to
// FallbackModels when no key is stored or the provider cannot be reached.
func (c *Controller) Models(ctx context.Context) []string {
	fallback := append([]string(nil), FallbackModels...)
	if c.catalog == nil {
		return fallback
	}

	settings, err := c.LoadSettings(ctx)
	if err != nil || !settings.HasAPIKey() {
		return fallback
	}

	models, err := c.catalog.ListModels(ctx, settings.APIKey)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to list models, using fallback", "error", err)
		return fallback
	}
	if len(models) == 0 {
		return fallback
	}
	return models
}

// RecentReplies returns up to limit reply log entries, newest first.
func (c *Controller) RecentReplies(ctx context.Context, limit int) ([]model.ReplyLogEntry, error) {
	if c.replyLog == nil {
		return nil, nil
	}
	entries, err := c.replyLog.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return entries, nil
}

// Close stops any active run and waits for it to finish or for ctx to expire.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	run := c.current
	c.mu.Unlock()

	c.cancelRun()
	if run == nil {
		return nil
	}

	select {
	case <-run.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
