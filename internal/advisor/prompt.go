package advisor

import (
	"fmt"
	"strings"

	"fx-autopilot/internal/domain"
)

// BuildRiskPrompt embeds the latest headlines and asks for a YES/NO verdict
// on closing all positions.
func BuildRiskPrompt(symbol, headlines string) string {
	var sb strings.Builder
	sb.WriteString("Upcoming economic calendar headlines:\n")
	sb.WriteString(headlines)
	sb.WriteString("\n\nShould I CLOSE all ")
	sb.WriteString(symbol)
	sb.WriteString(" trades now due to news risk? Answer 'YES' or 'NO'.")
	return sb.String()
}

// BuildSignalPrompt embeds open positions and the full market snapshot and
// asks for a BUY/SELL/NO TRADE recommendation.
func BuildSignalPrompt(systemPrompt string, positions []domain.Position, snap *domain.MarketSnapshot) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")

	if len(positions) == 0 {
		sb.WriteString("Open positions: none\n")
	} else {
		sb.WriteString("Open positions:\n")
		for _, p := range positions {
			sb.WriteString(fmt.Sprintf("  #%d %s %.2f lots @ %.5f, live profit %.2f\n",
				p.Ticket, p.Side, p.Volume, p.PriceOpen, p.Profit))
		}
	}

	sb.WriteString(fmt.Sprintf(`
Market snapshot for %s:
  Bid: %.5f (day %.5f - %.5f)
  Ask: %.5f (day %.5f - %.5f)
  Spread: %.1f points

Account:
  Balance: %.2f
  Equity: %.2f
  Margin used: %.2f (free %.2f, level %.2f%%)

Daily profit: %.2f of %.2f target`,
		snap.Symbol,
		snap.Bid, snap.BidLow, snap.BidHigh,
		snap.Ask, snap.AskLow, snap.AskHigh,
		snap.Spread,
		snap.Balance, snap.Equity,
		snap.Margin, snap.MarginFree, snap.MarginLevel,
		snap.CurrentDailyProfit, snap.DailyProfitTarget))

	if snap.TargetAchieved {
		sb.WriteString(" (target achieved)")
	}

	sb.WriteString("\n\nShould I BUY or SELL ")
	sb.WriteString(snap.Symbol)
	sb.WriteString(" now? Answer with 'BUY', 'SELL', or 'NO TRADE'.")
	return sb.String()
}
