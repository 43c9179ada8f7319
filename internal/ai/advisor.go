// Package ai asks a chat-completion model for category suggestions and
// spending insights. Every call degrades to a fixed fallback answer; callers
// never see an error.
package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"waist/internal/cache"
	"waist/internal/core"
	"waist/internal/log"
)

const (
	// FallbackCategory is returned whenever no suggestion can be obtained.
	FallbackCategory = "Miscellaneous"

	categorisationSystemPrompt = "You are an expense categorisation AI."
	insightsSystemPrompt       = "You are a financial insights assistant."
)

var (
	//go:embed prompts/categorisation.txt
	categorisationPrompt string
	//go:embed prompts/insights.txt
	insightsPrompt string
)

var errEmptyCompletion = errors.New("completion has no choices")

// ChatCompleter is the subset of *openai.Client the advisor uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// FallbackObserver is called each time a fallback answer is served.
type FallbackObserver func(operation string)

type Options struct {
	Model    string
	Timeout  time.Duration
	Cache    cache.Cache[string]
	Logger   *log.Logger
	Fallback FallbackObserver
}

type Advisor struct {
	client   ChatCompleter
	model    string
	timeout  time.Duration
	cache    cache.Cache[string]
	logger   *log.Logger
	fallback FallbackObserver
}

// NewClient builds an OpenAI client, or returns nil when apiKey is empty
// so that the advisor serves fallbacks only.
func NewClient(apiKey, baseURL string) ChatCompleter {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// NewAdvisor accepts a nil client.
func NewAdvisor(client ChatCompleter, opts Options) *Advisor {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Advisor{
		client:   client,
		model:    opts.Model,
		timeout:  opts.Timeout,
		cache:    opts.Cache,
		logger:   logger.WithComponent(log.ComponentAI),
		fallback: opts.Fallback,
	}
}

// Enabled reports whether a model client is configured.
func (a *Advisor) Enabled() bool {
	return a != nil && a.client != nil
}

// SuggestCategory returns a category name for the described expense.
func (a *Advisor) SuggestCategory(ctx context.Context, note string, amount decimal.Decimal, date, description string) string {
	if !a.Enabled() {
		return FallbackCategory
	}

	key := suggestionKey(note, amount, date, description)
	if a.cache != nil {
		if category, ok := a.cache.Get(key); ok {
			return category
		}
	}

	prompt := strings.NewReplacer(
		"<note>", note,
		"<amount>", amount.String(),
		"<date>", date,
		"<description>", description,
	).Replace(categorisationPrompt)

	var answer struct {
		Category string `json:"category"`
	}
	if err := a.complete(ctx, categorisationSystemPrompt, prompt, &answer); err != nil {
		a.logger.WarnContext(ctx, "Category suggestion failed, using fallback",
			log.FieldOperation, log.OpSuggest,
			log.FieldError, err.Error())
		a.reportFallback(log.OpSuggest)
		return FallbackCategory
	}

	category := strings.TrimSpace(answer.Category)
	if category == "" {
		a.reportFallback(log.OpSuggest)
		return FallbackCategory
	}
	if a.cache != nil {
		a.cache.Set(key, category)
	}
	a.logger.DebugContext(ctx, "Category suggested", log.FieldCategory, category)
	return category
}

// insightRow is the JSON shape each transaction takes inside the prompt.
type insightRow struct {
	ID       int64           `json:"id"`
	Date     string          `json:"date"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
}

// FallbackInsights is what Insights returns when the model is unavailable
// or its answer cannot be decoded.
func FallbackInsights() core.Insights {
	return core.Insights{
		Summary:            "Unable to generate insights.",
		TopCategories:      []any{},
		HighestTransaction: map[string]any{},
		Recommendation:     "Try again later.",
	}
}

// Insights summarises the given transactions.
func (a *Advisor) Insights(ctx context.Context, txs []core.Transaction) core.Insights {
	if !a.Enabled() {
		return FallbackInsights()
	}

	rows := make([]insightRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, insightRow{ID: t.ID, Date: t.Date, Category: t.Category, Amount: t.Amount, Note: t.Note})
	}
	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		a.reportFallback(log.OpInsights)
		return FallbackInsights()
	}
	prompt := strings.Replace(insightsPrompt, "<TRANSACTIONS>", string(payload), 1)

	var insights core.Insights
	if err := a.complete(ctx, insightsSystemPrompt, prompt, &insights); err != nil {
		a.logger.WarnContext(ctx, "Insights generation failed, using fallback",
			log.FieldOperation, log.OpInsights,
			log.FieldError, err.Error())
		a.reportFallback(log.OpInsights)
		return FallbackInsights()
	}
	if insights.TopCategories == nil {
		insights.TopCategories = []any{}
	}
	if insights.HighestTransaction == nil {
		insights.HighestTransaction = map[string]any{}
	}
	return insights
}

func (a *Advisor) complete(ctx context.Context, system, user string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errEmptyCompletion
	}

	content := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	return nil
}

func (a *Advisor) reportFallback(op string) {
	if a.fallback != nil {
		a.fallback(op)
	}
}

// stripFences removes a ```json ... ``` wrapper some models add anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func suggestionKey(note string, amount decimal.Decimal, date, description string) string {
	return strings.ToLower(strings.Join([]string{
		strings.TrimSpace(note), amount.String(), date, strings.TrimSpace(description),
	}, "\x1f"))
}
