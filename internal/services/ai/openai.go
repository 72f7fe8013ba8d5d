package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the per-request timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultOverallTimeout bounds a classification including one retry
	DefaultOverallTimeout = 45 * time.Second

	// DefaultMaxPromptChars caps the classification prompt size
	DefaultMaxPromptChars = 4000

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements the Classifier interface using OpenAI's API
type OpenAIProvider struct {
	client         openai.Client
	model          string
	maxPromptChars int
	requestTimeout time.Duration
	overallTimeout time.Duration
	logger         *zap.Logger
	debugMode      bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)

	return &OpenAIProvider{
		client:         client,
		model:          model,
		maxPromptChars: DefaultMaxPromptChars,
		requestTimeout: DefaultTimeout,
		overallTimeout: DefaultOverallTimeout,
		logger:         logger,
		debugMode:      debugMode,
	}
}

// SetPromptLimit overrides the maximum prompt size.
func (p *OpenAIProvider) SetPromptLimit(chars int) {
	if chars > 0 {
		p.maxPromptChars = chars
	}
}

// SetRequestTimeout overrides the per-request timeout.
func (p *OpenAIProvider) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		p.requestTimeout = d
	}
}

// SetOverallTimeout overrides the total classification budget.
func (p *OpenAIProvider) SetOverallTimeout(d time.Duration) {
	if d > 0 {
		p.overallTimeout = d
	}
}

// ClassifyNote classifies a note into a PARA category. One transient
// failure is retried within the overall timeout budget.
func (p *OpenAIProvider) ClassifyNote(ctx context.Context, title, content string) (*Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, p.overallTimeout)
	defer cancel()

	raw, err := p.sendClassificationRequest(ctx, title, content)
	if err != nil {
		if IsRateLimitError(err) || IsQuotaError(err) || ctx.Err() != nil {
			return nil, err
		}
		// one retry for transient failures
		raw, err = p.sendClassificationRequest(ctx, title, content)
		if err != nil {
			return nil, err
		}
	}

	classification, err := ParseClassification(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}
	return classification, nil
}

// sendClassificationRequest builds the prompt, sends the request, and
// returns the raw response content.
func (p *OpenAIProvider) sendClassificationRequest(ctx context.Context, title, content string) (string, error) {
	prompt := p.buildClassificationPrompt(title, content)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are an assistant that organizes markdown notes using the PARA method. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := ExtractRequestID(ctx)
	notePath := ExtractNotePath(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "classify_note"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("note_path", notePath),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req, option.WithRequestTimeout(p.requestTimeout))
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "classify_note"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("note_path", notePath),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to classify note: %w", apiErr)
		}
		return "", fmt.Errorf("failed to classify note: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	raw := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "classify_note"),
			zap.String("model", p.model),
			zap.Int("response_length", len(raw)),
			zap.String("response_preview", SanitizeResponse(raw, true)),
			zap.String("note_path", notePath),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return raw, nil
}

// buildClassificationPrompt assembles the prompt for a note, truncating
// the body so the whole prompt stays within the configured limit.
func (p *OpenAIProvider) buildClassificationPrompt(title, content string) string {
	header := fmt.Sprintf(`Classify the following markdown note into exactly one PARA category.

**Projects** - A series of tasks linked to a goal with a deadline:
- MUST HAVE: specific outcomes, deadlines, action items

**Areas** - A sphere of activity with a standard to maintain over time:
- INDICATORS: recurring reviews, routines, ongoing responsibilities

**Resources** - A topic of ongoing interest, reference material:
- INDICATORS: guides, documentation, collected knowledge

**Archive** - Inactive items from the other three categories:
- INDICATORS: past tense, completed status, outdated information

Note title: %q

Note content:
`, title)

	footer := `

Respond with a JSON object in this format:
{
  "category": "Projects" | "Areas" | "Resources" | "Archive",
  "folder_name": "short descriptive folder name"
}

Return only valid JSON.`

	budget := p.maxPromptChars - len(header) - len(footer)
	if budget < 0 {
		budget = 0
	}
	body := content
	if len(body) > budget {
		body = truncateAtWord(body, budget)
	}

	return header + body + footer
}

// truncateAtWord cuts s to at most max bytes, backing up to the previous
// whitespace boundary when one exists in the tail.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > max/2 {
		cut = cut[:idx]
	}
	return cut
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (Classifier, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false), nil
	})
}

// ensure the provider satisfies the interface
var _ Classifier = (*OpenAIProvider)(nil)
