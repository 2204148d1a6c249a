package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fx-autopilot/internal/domain"

	"github.com/openai/openai-go"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type mockLLM struct {
	reply string
	err   error
	calls int
}

func (m *mockLLM) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.reply}},
		},
	}, nil
}

func newTestAdvisor(llm LLMClient) *Advisor {
	return New(testTracer, llm, "test-model", "EURUSD", "You are a test advisor.")
}

func TestParseSignal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		reply string
		want  domain.SignalType
	}{
		{"I think we should BUY now", domain.SignalBuy},
		{"Definitely SELL here", domain.SignalSell},
		{"unclear, maybe hold", domain.SignalNoTrade},
		{"NO TRADE", domain.SignalNoTrade},
		{"buy the dip, do not sell", domain.SignalBuy},
		{"", domain.SignalNoTrade},
	}

	for _, tc := range cases {
		if got := ParseSignal(tc.reply); got != tc.want {
			t.Errorf("ParseSignal(%q) = %s, want %s", tc.reply, got, tc.want)
		}
	}
}

func TestParseRiskAnswer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		reply string
		want  bool
	}{
		{"YES", true},
		{"yes, close everything", true},
		{"Yes. The FOMC statement is imminent.", true},
		{"NO", false},
		{"No, conditions look calm", false},
		{"I cannot make that determination", false},
		{"the answer at the very end of this long explanation is YES", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ParseRiskAnswer(tc.reply); got != tc.want {
			t.Errorf("ParseRiskAnswer(%q) = %v, want %v", tc.reply, got, tc.want)
		}
	}
}

func TestCheckNewsRiskDefaultsToFalseOnError(t *testing.T) {
	t.Parallel()

	a := newTestAdvisor(&mockLLM{err: errors.New("api down")})
	if a.CheckNewsRisk(context.Background(), "headline") {
		t.Fatal("LLM failure must not force-close positions")
	}
}

func TestCheckNewsRiskYes(t *testing.T) {
	t.Parallel()

	a := newTestAdvisor(&mockLLM{reply: "YES, high impact event within the hour."})
	if !a.CheckNewsRisk(context.Background(), "headline") {
		t.Fatal("expected risk detected")
	}
}

func TestTradeSignalDefaultsToNoTradeOnError(t *testing.T) {
	t.Parallel()

	a := newTestAdvisor(&mockLLM{err: errors.New("api down")})
	snap := &domain.MarketSnapshot{Symbol: "EURUSD"}
	if got := a.TradeSignal(context.Background(), nil, snap); got != domain.SignalNoTrade {
		t.Fatalf("expected NO_TRADE on failure, got %s", got)
	}
}

func TestTradeSignalParsesReply(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{reply: "Given the momentum I would BUY at this level."}
	a := newTestAdvisor(llm)
	snap := &domain.MarketSnapshot{Symbol: "EURUSD", Bid: 1.1, Ask: 1.1002}
	if got := a.TradeSignal(context.Background(), nil, snap); got != domain.SignalBuy {
		t.Fatalf("expected BUY, got %s", got)
	}
	if llm.calls != 1 {
		t.Fatalf("expected a single LLM call, got %d", llm.calls)
	}
}

func TestBuildSignalPromptIncludesPositionsAndSnapshot(t *testing.T) {
	t.Parallel()

	positions := []domain.Position{
		{Ticket: 7, Side: domain.SideBuy, Volume: 0.01, PriceOpen: 1.09876, Profit: 3.21},
	}
	snap := &domain.MarketSnapshot{
		Symbol: "EURUSD", Bid: 1.1, Ask: 1.1002, Spread: 2,
		Balance: 1000, Equity: 1003.21,
		CurrentDailyProfit: 3.21, DailyProfitTarget: 20,
	}

	prompt := BuildSignalPrompt("SYSTEM", positions, snap)
	for _, want := range []string{"SYSTEM", "#7 BUY", "1.09876", "EURUSD", "3.21 of 20.00 target", "'BUY', 'SELL', or 'NO TRADE'"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildRiskPromptEmbedsHeadlines(t *testing.T) {
	t.Parallel()

	prompt := BuildRiskPrompt("EURUSD", "2025-06-02 14:30 - [USD] [High Impact] NFP")
	if !strings.Contains(prompt, "NFP") || !strings.Contains(prompt, "EURUSD") {
		t.Fatalf("prompt missing content:\n%s", prompt)
	}
	if !strings.Contains(prompt, "'YES' or 'NO'") {
		t.Fatalf("prompt missing answer instruction:\n%s", prompt)
	}
}
