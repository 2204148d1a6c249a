package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fx-autopilot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TradeRetcodeDone is the terminal's "request completed" return code.
const TradeRetcodeDone = 10009

// Client talks to an MT5 gateway over REST. One client is one logical
// terminal session; construct it once in main and pass the handle down.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(baseURL string, tracer trace.Tracer) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tracer: tracer,
	}
}

type loginRequest struct {
	Account  int64  `json:"account"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

type loginResponse struct {
	Authorized bool   `json:"authorized"`
	Message    string `json:"message,omitempty"`
}

// Login authenticates the terminal session. A failure here is fatal at
// startup; the trade loop must not start without a session.
func (c *Client) Login(ctx context.Context, account int64, password, server string) error {
	ctx, span := c.tracer.Start(ctx, "broker.login")
	defer span.End()
	span.SetAttributes(attribute.Int64("broker.account", account))

	var resp loginResponse
	if err := c.post(ctx, "/login", loginRequest{Account: account, Password: password, Server: server}, &resp); err != nil {
		return fmt.Errorf("broker login: %w", err)
	}
	if !resp.Authorized {
		return fmt.Errorf("broker login rejected: %s", resp.Message)
	}
	return nil
}

// Shutdown releases the terminal session.
func (c *Client) Shutdown(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "broker.shutdown")
	defer span.End()

	return c.post(ctx, "/shutdown", struct{}{}, nil)
}

type gatewayPosition struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      int     `json:"type"` // 0 = buy, 1 = sell
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	Profit    float64 `json:"profit"`
	Time      int64   `json:"time"`
}

// Positions returns the open positions for a symbol.
func (c *Client) Positions(ctx context.Context, symbol string) ([]domain.Position, error) {
	ctx, span := c.tracer.Start(ctx, "broker.positions")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	var raw struct {
		Positions []gatewayPosition `json:"positions"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/positions?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("broker positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(raw.Positions))
	for _, p := range raw.Positions {
		side := domain.SideBuy
		if p.Type == 1 {
			side = domain.SideSell
		}
		positions = append(positions, domain.Position{
			Ticket:    p.Ticket,
			Symbol:    p.Symbol,
			Side:      side,
			Volume:    p.Volume,
			PriceOpen: p.PriceOpen,
			Profit:    p.Profit,
			OpenedAt:  time.Unix(p.Time, 0).UTC(),
		})
	}
	return positions, nil
}

type gatewayQuote struct {
	Symbol         string  `json:"symbol"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	BidHigh        float64 `json:"bidhigh"`
	BidLow         float64 `json:"bidlow"`
	AskHigh        float64 `json:"askhigh"`
	AskLow         float64 `json:"asklow"`
	Spread         float64 `json:"spread"`
	Point          float64 `json:"point"`
	Digits         int     `json:"digits"`
	ContractSize   float64 `json:"trade_contract_size"`
	Time           int64   `json:"time"`
	CurrencyBase   string  `json:"currency_base"`
	CurrencyProfit string  `json:"currency_profit"`
}

// SymbolInfo returns the terminal's current quote for a symbol.
func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := c.tracer.Start(ctx, "broker.symbol-info")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	var raw gatewayQuote
	if err := c.get(ctx, "/symbols/"+url.PathEscape(symbol), &raw); err != nil {
		return nil, fmt.Errorf("broker symbol info: %w", err)
	}

	return &domain.Quote{
		Symbol:         raw.Symbol,
		Bid:            raw.Bid,
		Ask:            raw.Ask,
		BidHigh:        raw.BidHigh,
		BidLow:         raw.BidLow,
		AskHigh:        raw.AskHigh,
		AskLow:         raw.AskLow,
		Spread:         raw.Spread,
		Point:          raw.Point,
		Digits:         raw.Digits,
		ContractSize:   raw.ContractSize,
		Time:           time.Unix(raw.Time, 0).UTC(),
		CurrencyBase:   raw.CurrencyBase,
		CurrencyProfit: raw.CurrencyProfit,
	}, nil
}

// AccountInfo returns the terminal's account state.
func (c *Client) AccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	ctx, span := c.tracer.Start(ctx, "broker.account-info")
	defer span.End()

	var info domain.AccountInfo
	if err := c.get(ctx, "/account", &info); err != nil {
		return nil, fmt.Errorf("broker account info: %w", err)
	}
	return &info, nil
}

type orderSendRequest struct {
	Action    string  `json:"action"`
	Symbol    string  `json:"symbol"`
	Volume    float64 `json:"volume"`
	Type      int     `json:"type"`
	Price     float64 `json:"price"`
	Deviation int     `json:"deviation"`
	Position  int64   `json:"position,omitempty"`
	Comment   string  `json:"comment"`
	TypeTime  string  `json:"type_time"`
	Filling   string  `json:"type_filling"`
}

type orderSendResponse struct {
	Retcode int     `json:"retcode"`
	Order   int64   `json:"order"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

// OrderSend submits a market-deal order. The returned result carries the
// broker's verdict; a non-nil result with Success=false is a rejected order,
// not a transport failure.
func (c *Client) OrderSend(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	ctx, span := c.tracer.Start(ctx, "broker.order-send")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("side", string(req.Side)),
		attribute.Float64("volume", req.Volume),
	)

	orderType := 0
	if req.Side == domain.SideSell {
		orderType = 1
	}

	var resp orderSendResponse
	err := c.post(ctx, "/order_send", orderSendRequest{
		Action:    "deal",
		Symbol:    req.Symbol,
		Volume:    req.Volume,
		Type:      orderType,
		Price:     req.Price,
		Deviation: req.Deviation,
		Position:  req.Position,
		Comment:   req.Comment,
		TypeTime:  "gtc",
		Filling:   "ioc",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("broker order send: %w", err)
	}

	return &domain.OrderResult{
		Success: resp.Retcode == TradeRetcodeDone,
		RetCode: resp.Retcode,
		Ticket:  resp.Order,
		Price:   resp.Price,
		Comment: resp.Comment,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
