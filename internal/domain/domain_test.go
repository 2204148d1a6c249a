package domain

import (
	"testing"
)

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Errorf("opposite of BUY should be SELL, got %s", SideBuy.Opposite())
	}
	if SideSell.Opposite() != SideBuy {
		t.Errorf("opposite of SELL should be BUY, got %s", SideSell.Opposite())
	}
}

func TestSignalTypeTradeable(t *testing.T) {
	if !SignalBuy.Tradeable() || !SignalSell.Tradeable() {
		t.Error("BUY and SELL signals should be tradeable")
	}
	if SignalNoTrade.Tradeable() {
		t.Error("NO_TRADE signal should not be tradeable")
	}
}

func TestSnapshotMidPrice(t *testing.T) {
	snap := MarketSnapshot{Bid: 1.1000, Ask: 1.1002}
	mid := snap.MidPrice()
	if mid < 1.1000 || mid > 1.1002 {
		t.Errorf("mid price out of bid/ask range: %f", mid)
	}
}
