package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

type Config struct {
	APIKey           string
	AzureEndpoint    string
	APIVersion       string
	BaseURL          string
	Model            string
	MaxTokens        int
	SummaryMaxTokens int
	Temperature      float64
	StructureTimeout time.Duration
	SummaryTimeout   time.Duration
	IntentTimeout    time.Duration
	MaxInputTokens   int
}

// GPTClassifier wraps the chat completion API for the three calls the bot
// makes: CV structuring, the short candidate summary and intent guessing.
type GPTClassifier struct {
	client           *openai.Client
	model            string
	maxTokens        int
	summaryMaxTokens int
	temperature      float64
	structureTimeout time.Duration
	summaryTimeout   time.Duration
	intentTimeout    time.Duration
	budget           *TokenBudget
	logger           *zap.Logger
}

func NewGPTClassifier(cfg Config, logger *zap.Logger) *GPTClassifier {
	var clientConfig openai.ClientConfig
	if cfg.AzureEndpoint != "" {
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}
	} else {
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	budget, err := NewTokenBudget(cfg.MaxInputTokens)
	if err != nil {
		logger.Warn("Token budget disabled", zap.Error(err))
		budget = nil
	}

	return &GPTClassifier{
		client:           openai.NewClientWithConfig(clientConfig),
		model:            cfg.Model,
		maxTokens:        cfg.MaxTokens,
		summaryMaxTokens: cfg.SummaryMaxTokens,
		temperature:      cfg.Temperature,
		structureTimeout: cfg.StructureTimeout,
		summaryTimeout:   cfg.SummaryTimeout,
		intentTimeout:    cfg.IntentTimeout,
		budget:           budget,
		logger:           logger,
	}
}

// Structure turns raw CV text into a CandidateRecord.
func (c *GPTClassifier) Structure(ctx context.Context, cvText string) (*models.CandidateRecord, error) {
	if fitted, cut := c.budget.Fit(cvText); cut {
		c.logger.Info("CV text trimmed to token budget",
			zap.Int("original_chars", len(cvText)),
			zap.Int("trimmed_chars", len(fitted)))
		cvText = fitted
	}

	content, err := c.complete(ctx, "structure", c.structureTimeout, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: structurePrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: cvText,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}

	rec, err := ParseCandidate(content)
	if err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.Int("response_chars", len(content)))
		return nil, &AIError{Op: "structure", Err: err}
	}
	return rec, nil
}

// Summarize writes the 2-3 sentence third person profile sent next to the document.
func (c *GPTClassifier) Summarize(ctx context.Context, rec *models.CandidateRecord) (string, error) {
	cvJSON, err := json.Marshal(rec)
	if err != nil {
		return "", &AIError{Op: "summarize", Err: err}
	}

	content, err := c.complete(ctx, "summarize", c.summaryTimeout, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(summaryPrompt, cvJSON),
			},
		},
		MaxTokens:   c.summaryMaxTokens,
		Temperature: float32(c.temperature),
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

type intentResponse struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// ClassifyIntent guesses whether free text asks for an action. It returns the
// action, or "" when none applies, with the model's confidence.
func (c *GPTClassifier) ClassifyIntent(ctx context.Context, text string) (models.Action, float64, error) {
	content, err := c.complete(ctx, "intent", c.intentTimeout, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(intentPrompt, text),
			},
		},
		MaxTokens:   60,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", 0, err
	}

	var resp intentResponse
	if err := json.Unmarshal([]byte(stripFences(content)), &resp); err != nil {
		return "", 0, &AIError{Op: "intent", Err: err}
	}
	if models.Action(strings.ToLower(resp.Action)) != models.ActionReformat {
		return "", resp.Confidence, nil
	}
	return models.ActionReformat, resp.Confidence, nil
}

func (c *GPTClassifier) complete(ctx context.Context, op string, timeout time.Duration, req openai.ChatCompletionRequest) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("Failed to get GPT response",
			zap.Error(err),
			zap.String("op", op),
			zap.Duration("elapsed", time.Since(start)))
		return "", &AIError{Op: op, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &AIError{Op: op, Err: errors.New("empty response from model")}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &AIError{Op: op, Err: errors.New("model returned no content")}
	}

	c.logger.Debug("GPT response received",
		zap.String("op", op),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return content, nil
}
