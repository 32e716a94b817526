package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-70b-versatile"

	groqTemperature = 0.3
	groqMaxTokens   = 2048

	systemPrompt = "You are a professional Solana blockchain developer and DeFi trading expert. Always respond with valid JSON only."
)

// ChatClient is the part of the go-openai client Groq uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Groq analyzes flows with a model served through Groq's OpenAI-compatible API.
type Groq struct {
	client ChatClient
	model  string
}

// GroqOption configures a Groq provider.
type GroqOption func(*groqConfig)

type groqConfig struct {
	baseURL string
	model   string
	client  ChatClient
}

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) GroqOption {
	return func(c *groqConfig) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithModel overrides the chat model.
func WithModel(model string) GroqOption {
	return func(c *groqConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithChatClient replaces the HTTP client entirely.
func WithChatClient(client ChatClient) GroqOption {
	return func(c *groqConfig) {
		c.client = client
	}
}

// NewGroq creates a Groq provider authenticated with apiKey.
func NewGroq(apiKey string, opts ...GroqOption) *Groq {
	cfg := &groqConfig{baseURL: DefaultGroqBaseURL, model: DefaultGroqModel}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		oc := openai.DefaultConfig(apiKey)
		oc.BaseURL = cfg.baseURL
		cfg.client = openai.NewClientWithConfig(oc)
	}
	return &Groq{client: cfg.client, model: cfg.model}
}

func (g *Groq) Analyze(ctx context.Context, req Request) (*Report, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: groqTemperature,
		MaxTokens:   groqMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return parseReport(resp.Choices[0].Message.Content)
}

// parseReport decodes the model's answer. Markdown code fences around the JSON are
// tolerated.
func parseReport(content string) (*Report, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var r Report
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if r.FlowComplexity == "" || r.RiskAssessment == "" || r.EstimatedProfitability == "" {
		return nil, ErrInvalidResponse
	}
	return &r, nil
}

func buildPrompt(req Request) (string, error) {
	flow, err := json.MarshalIndent(req.Flow, "", "  ")
	if err != nil {
		return "", fmt.Errorf("analysis: encode flow: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a professional Solana blockchain developer and DeFi trading expert. ")
	b.WriteString("Analyze the following wallet flow configuration and provide detailed insights.\n\n")
	fmt.Fprintf(&b, "Flow Configuration:\n%s\n\n", flow)
	fmt.Fprintf(&b, "Network: %s\n", req.Network)
	fmt.Fprintf(&b, "Analysis Type: %s\n", req.Options.AnalysisType)
	fmt.Fprintf(&b, "Depth: %s\n\n", req.Options.Depth)
	b.WriteString(`Please analyze this flow and provide:
1. Flow complexity assessment (Low/Medium/High)
2. Risk assessment (Low/Moderate/High)
3. Estimated profitability range for 24h period
4. 3-4 specific optimization suggestions
5. 3-4 current market insights relevant to this flow
6. 1-2 trading opportunities based on the flow type

Respond in JSON format matching this structure:
{
  "flowComplexity": "Low|Medium|High",
  "riskAssessment": "Low|Moderate|High",
  "estimatedProfitability": "X% - Y% (24h)",
  "suggestions": ["suggestion1", "suggestion2", ...],
  "marketInsights": ["insight1", "insight2", ...],
  "tradingOpportunities": [
    {
      "type": "Arbitrage|Momentum|etc",
      "route": "optional route description",
      "asset": "optional asset",
      "direction": "optional direction",
      "estimatedProfit": "X%",
      "risk": "Low|Medium|High",
      "timeWindow": "time estimate"
    }
  ]
}`)
	return b.String(), nil
}
