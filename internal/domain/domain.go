package domain

import "time"

// Side is the direction of a broker order or open position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing direction for a position opened on this side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// SignalType is the outcome of one decision cycle.
type SignalType string

const (
	SignalBuy     SignalType = "BUY"
	SignalSell    SignalType = "SELL"
	SignalNoTrade SignalType = "NO_TRADE"
)

// Tradeable reports whether the signal should lead to an order.
func (s SignalType) Tradeable() bool {
	return s == SignalBuy || s == SignalSell
}

// Trade mirrors one broker-side trade. The broker ticket is the external
// identity; a trade is active until close price/time are set, and is never
// deleted afterwards.
type Trade struct {
	ID         int64      `json:"id"`
	Ticket     int64      `json:"ticket"`
	Symbol     string     `json:"symbol"`
	Side       Side       `json:"side"`
	Volume     float64    `json:"volume"`
	PriceOpen  float64    `json:"price_open"`
	PriceClose *float64   `json:"price_close,omitempty"`
	Profit     *float64   `json:"profit,omitempty"`
	TimeOpen   time.Time  `json:"time_open"`
	TimeClose  *time.Time `json:"time_close,omitempty"`
	IsActive   bool       `json:"is_active"`
	SignalID   *int64     `json:"signal_id,omitempty"`
}

// Signal records one decision-engine verdict, executed or not.
type Signal struct {
	ID          int64      `json:"id"`
	Symbol      string     `json:"symbol"`
	Type        SignalType `json:"type"`
	Confidence  *float64   `json:"confidence,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
	Executed    bool       `json:"executed"`
}

// DailyInvestment tracks cumulative capital committed on one calendar day.
// One row per date; the amount only ever grows within a day.
type DailyInvestment struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// MarketSnapshot is an append-only audit record of quote, account, and daily
// profit state at the moment it was captured.
type MarketSnapshot struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	BidHigh    float64   `json:"bid_high"`
	BidLow     float64   `json:"bid_low"`
	AskHigh    float64   `json:"ask_high"`
	AskLow     float64   `json:"ask_low"`
	Spread     float64   `json:"spread"`
	CapturedAt time.Time `json:"captured_at"`

	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	MarginFree  float64 `json:"margin_free"`
	MarginLevel float64 `json:"margin_level"`

	DailyProfitTarget  float64 `json:"daily_profit_target"`
	CurrentDailyProfit float64 `json:"current_daily_profit"`
	TargetAchieved     bool    `json:"target_achieved"`

	PredictedProfit    *float64 `json:"predicted_profit,omitempty"`
	PredictedDirection string   `json:"predicted_direction,omitempty"`
}

// MidPrice is the bid/ask midpoint used for notional sizing.
func (m *MarketSnapshot) MidPrice() float64 {
	return (m.Bid + m.Ask) / 2
}

// NewsEvent is one calendar entry from the economic news feed.
type NewsEvent struct {
	ID        int64     `json:"id"`
	EventTime time.Time `json:"event_time"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Impact    string    `json:"impact"`
	Actual    string    `json:"actual,omitempty"`
	Forecast  string    `json:"forecast,omitempty"`
	Previous  string    `json:"previous,omitempty"`
}

// TradeStats aggregates closed and open trades for reporting.
type TradeStats struct {
	TotalTrades  int     `json:"total_trades"`
	OpenTrades   int     `json:"open_trades"`
	ClosedTrades int     `json:"closed_trades"`
	TotalProfit  float64 `json:"total_profit"`
	WinRate      float64 `json:"win_rate"`
	AvgProfit    float64 `json:"avg_profit"`
}
