package domain

import "time"

// Position is one open broker position as reported by the terminal.
type Position struct {
	Ticket    int64     `json:"ticket"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Volume    float64   `json:"volume"`
	PriceOpen float64   `json:"price_open"`
	Profit    float64   `json:"profit"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Quote is the terminal's current view of one symbol.
type Quote struct {
	Symbol         string    `json:"symbol"`
	Bid            float64   `json:"bid"`
	Ask            float64   `json:"ask"`
	BidHigh        float64   `json:"bid_high"`
	BidLow         float64   `json:"bid_low"`
	AskHigh        float64   `json:"ask_high"`
	AskLow         float64   `json:"ask_low"`
	Spread         float64   `json:"spread"`
	Point          float64   `json:"point"`
	Digits         int       `json:"digits"`
	ContractSize   float64   `json:"contract_size"`
	Time           time.Time `json:"time"`
	CurrencyBase   string    `json:"currency_base"`
	CurrencyProfit string    `json:"currency_profit"`
}

// AccountInfo is the terminal's current account state.
type AccountInfo struct {
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	MarginFree  float64 `json:"margin_free"`
	MarginLevel float64 `json:"margin_level"`
}

// OrderRequest describes a market-deal order. Position is non-zero when the
// order closes an existing position by ticket.
type OrderRequest struct {
	Symbol    string  `json:"symbol"`
	Side      Side    `json:"side"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	Deviation int     `json:"deviation"`
	Position  int64   `json:"position,omitempty"`
	Comment   string  `json:"comment"`
}

// OrderResult is the broker's fill confirmation. Callers must check Success
// explicitly; a returned result never implies a fill on its own.
type OrderResult struct {
	Success bool    `json:"success"`
	RetCode int     `json:"retcode"`
	Ticket  int64   `json:"ticket"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment,omitempty"`
}
