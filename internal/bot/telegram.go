package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fx-autopilot/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type TradeReader interface {
	ListActive(ctx context.Context, symbol string) ([]domain.Trade, error)
	Stats(ctx context.Context) (*domain.TradeStats, error)
}

type NewsReader interface {
	Upcoming(ctx context.Context, from time.Time, window time.Duration) ([]domain.NewsEvent, error)
}

type StatusReader interface {
	Status() string
}

// StartTelegramBot exposes read-only monitoring commands. No token means no
// bot; trading is never driven from chat.
func StartTelegramBot(trades TradeReader, news NewsReader, cycle StatusReader) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/status", func(c tele.Context) error {
		return c.Send(fmt.Sprintf("Bot status: %s", cycle.Status()))
	})

	b.Handle("/trades", func(c tele.Context) error {
		open, err := trades.ListActive(context.Background(), "")
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching trades: %v", err))
		}
		return c.Send(FormatOpenTrades(open))
	})

	b.Handle("/profit", func(c tele.Context) error {
		stats, err := trades.Stats(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching stats: %v", err))
		}
		return c.Send(FormatStats(stats))
	})

	b.Handle("/news", func(c tele.Context) error {
		events, err := news.Upcoming(context.Background(), time.Now(), 24*time.Hour)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching news: %v", err))
		}
		return c.Send(FormatNews(events))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func FormatOpenTrades(trades []domain.Trade) string {
	if len(trades) == 0 {
		return "No open trades"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Open trades (%d):\n", len(trades)))
	for _, t := range trades {
		profit := 0.0
		if t.Profit != nil {
			profit = *t.Profit
		}
		sb.WriteString(fmt.Sprintf("#%d %s %s %.2f lots @ %.5f, profit %.2f\n",
			t.Ticket, t.Side, t.Symbol, t.Volume, t.PriceOpen, profit))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatStats(s *domain.TradeStats) string {
	return fmt.Sprintf(
		"Trades: %d (%d open, %d closed)\nWin rate: %.1f%%\nTotal profit: %.2f\nAvg profit: %.2f",
		s.TotalTrades, s.OpenTrades, s.ClosedTrades, s.WinRate, s.TotalProfit, s.AvgProfit)
}

func FormatNews(events []domain.NewsEvent) string {
	if len(events) == 0 {
		return "No events in the next 24h"
	}
	var sb strings.Builder
	sb.WriteString("Upcoming events:\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("%s [%s] %s (%s)\n",
			e.EventTime.Format("Mon 15:04"), e.Currency, e.Name, e.Impact))
	}
	return strings.TrimRight(sb.String(), "\n")
}
