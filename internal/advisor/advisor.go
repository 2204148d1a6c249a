package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fx-autopilot/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Advisor is the decision engine. Both decisions delegate to the LLM and
// parse its free-form reply defensively: an unreachable or incoherent model
// yields "NO" for the risk check and NO_TRADE for the signal, so LLM trouble
// never force-closes positions and never opens new ones.
type Advisor struct {
	tracer       trace.Tracer
	llm          LLMClient
	model        string
	symbol       string
	systemPrompt string
}

func New(tracer trace.Tracer, llm LLMClient, model, symbol, systemPrompt string) *Advisor {
	return &Advisor{
		tracer:       tracer,
		llm:          llm,
		model:        model,
		symbol:       symbol,
		systemPrompt: systemPrompt,
	}
}

// CheckNewsRisk asks whether all positions should be closed given the latest
// headlines. Defaults to false on any failure.
func (a *Advisor) CheckNewsRisk(ctx context.Context, headlines string) bool {
	ctx, span := a.tracer.Start(ctx, "advisor.check-news-risk")
	defer span.End()

	reply, err := a.ask(ctx, BuildRiskPrompt(a.symbol, headlines))
	if err != nil {
		span.RecordError(err)
		log.Printf("risk check LLM call failed, defaulting to no risk: %v", err)
		return false
	}

	risky := ParseRiskAnswer(reply)
	span.SetAttributes(attribute.Bool("risk.detected", risky))
	return risky
}

// TradeSignal asks for a BUY/SELL/NO TRADE recommendation given open
// positions and the market snapshot. Defaults to NO_TRADE on any failure.
func (a *Advisor) TradeSignal(ctx context.Context, positions []domain.Position, snap *domain.MarketSnapshot) domain.SignalType {
	ctx, span := a.tracer.Start(ctx, "advisor.trade-signal")
	defer span.End()

	reply, err := a.ask(ctx, BuildSignalPrompt(a.systemPrompt, positions, snap))
	if err != nil {
		span.RecordError(err)
		log.Printf("signal LLM call failed, defaulting to NO_TRADE: %v", err)
		return domain.SignalNoTrade
	}

	signal := ParseSignal(reply)
	span.SetAttributes(attribute.String("signal.type", string(signal)))
	return signal
}

func (a *Advisor) ask(ctx context.Context, prompt string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", a.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	completion, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}
	return completion.Choices[0].Message.Content, nil
}

// riskAnswerWindow bounds how far into the reply a YES is still treated as
// the answer rather than incidental prose.
const riskAnswerWindow = 5

// ParseRiskAnswer scans the first few words of the normalized reply for a
// literal YES token. Anything else means "keep trading".
func ParseRiskAnswer(reply string) bool {
	fields := strings.Fields(strings.ToUpper(reply))
	if len(fields) > riskAnswerWindow {
		fields = fields[:riskAnswerWindow]
	}
	for _, f := range fields {
		if strings.Trim(f, ".,!:;'\"()") == "YES" {
			return true
		}
	}
	return false
}

// ParseSignal extracts a trade direction from an arbitrary reply. BUY is
// checked before SELL; first match wins. No recognizable token is NO_TRADE.
func ParseSignal(reply string) domain.SignalType {
	upper := strings.ToUpper(reply)
	if strings.Contains(upper, "BUY") {
		return domain.SignalBuy
	}
	if strings.Contains(upper, "SELL") {
		return domain.SignalSell
	}
	return domain.SignalNoTrade
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
