package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/stasher/internal/models"
	"github.com/desertthunder/stasher/internal/shared"
)

const (
	DefaultPlannerURL   = "http://localhost:11434/v1/chat/completions"
	DefaultPlannerModel = "qwen3:4b"

	defaultPlannerTimeout  = 60 * time.Second
	defaultPlannerAttempts = 3
	plannerRetryDelay      = time.Second
)

const plannerPrompt = `You turn requests about YouTube playlists into commands.
Respond with a single JSON object: {"command": "<name>", "parameters": {...}}.

Commands:
- update_playlist: refresh one playlist. Parameters: {"playlist_id": "<id>"}
- update_all_playlists: refresh every playlist of the user. Parameters: {}
- stash_video: download videos. Parameters: {"video_urls": ["<url or id>", ...], "output_path": "downloads", "audio_only": false}
- check_playlist_delta: compare remote playlists with the local store. Parameters: {"save": false}

Examples:
"stash dQw4w9WgXcQ" -> {"command": "stash_video", "parameters": {"video_urls": ["dQw4w9WgXcQ"], "output_path": "downloads", "audio_only": false}}
"update all playlists" -> {"command": "update_all_playlists", "parameters": {}}
"refresh playlist PL123" -> {"command": "update_playlist", "parameters": {"playlist_id": "PL123"}}`

// PlannerConfig configures a [Planner] against an OpenAI-compatible chat completions endpoint.
type PlannerConfig struct {
	BaseURL        string
	Model          string
	APIKey         string
	TimeoutSeconds int
}

// Planner converts free text into a [models.CommandPlan] using a chat model.
type Planner struct {
	cfg        PlannerConfig
	httpClient *http.Client
	attempts   int
	sleep      Sleeper
}

// PlannerOption customizes a [Planner].
type PlannerOption func(*Planner)

// WithPlannerHTTPClient sets the HTTP client used for completions.
func WithPlannerHTTPClient(client *http.Client) PlannerOption {
	return func(p *Planner) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithPlannerAttempts sets the number of attempts for retryable failures.
func WithPlannerAttempts(n int) PlannerOption {
	return func(p *Planner) {
		p.attempts = n
	}
}

// WithPlannerSleeper replaces the wait between attempts.
func WithPlannerSleeper(s Sleeper) PlannerOption {
	return func(p *Planner) {
		p.sleep = s
	}
}

// NewPlanner creates a new Planner.
func NewPlanner(cfg PlannerConfig, opts ...PlannerOption) *Planner {
	timeout := defaultPlannerTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	p := &Planner{
		cfg: PlannerConfig{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		attempts:   defaultPlannerAttempts,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.BaseURL == "" {
		p.cfg.BaseURL = DefaultPlannerURL
	}
	if p.cfg.Model == "" {
		p.cfg.Model = DefaultPlannerModel
	}
	if p.attempts < 1 {
		p.attempts = 1
	}
	return p
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type plannerStatusError struct {
	StatusCode int
	Body       string
}

func (e *plannerStatusError) Error() string {
	return fmt.Sprintf("planner request: http %d: %s", e.StatusCode, e.Body)
}

// Plan asks the model for a command plan. An undecodable reply wraps [shared.ErrInvalidCommand].
func (p *Planner) Plan(ctx context.Context, input string) (models.CommandPlan, error) {
	var plan models.CommandPlan
	input = strings.TrimSpace(input)
	if input == "" {
		return plan, fmt.Errorf("%w: empty request", shared.ErrInvalidInput)
	}

	payload := chatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: plannerPrompt},
			{Role: "user", Content: input},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := p.completeWithRetry(ctx, payload)
	if err != nil {
		return plan, err
	}
	if err := DecodeLLMJSON(content, &plan); err != nil {
		return plan, fmt.Errorf("%w: %w", shared.ErrInvalidCommand, err)
	}
	if plan.Parameters == nil {
		plan.Parameters = map[string]any{}
	}
	plan.Command = strings.TrimSpace(plan.Command)
	return plan, nil
}

func (p *Planner) completeWithRetry(ctx context.Context, payload chatCompletionRequest) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		content, err := p.complete(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryablePlannerError(err) || attempt == p.attempts {
			break
		}
		if err := p.sleep(ctx, plannerRetryDelay*time.Duration(attempt)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (p *Planner) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("planner request: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("planner request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("planner request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("planner request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &plannerStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("planner request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("planner request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", errors.New("planner request: empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}

func retryablePlannerError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *plannerStatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	return true
}

// DecodeLLMJSON decodes a model reply into target, tolerating code fences and prose around
// the JSON object.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	return json.Unmarshal([]byte(sanitized), target)
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	start := strings.Index(content, "```")
	if start < 0 {
		return content
	}
	rest := content[start+3:]
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
