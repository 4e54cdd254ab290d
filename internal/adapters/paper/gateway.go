package paper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/rgonzalo/straddlebot/internal/ports"
)

// Gateway is a simulated ports.OrderGateway for dry runs: orders fill
// instantly at the live quote, nothing reaches the terminal. The price
// feed is still the real one, so entry and exit levels are honest.
type Gateway struct {
	feed ports.PriceFeed

	mu         sync.Mutex
	nextTicket int64
	open       map[int64]paperPosition
}

type paperPosition struct {
	instrument string
	side       domain.Side
	volume     float64
}

// NewGateway creates a paper gateway filling against the given feed.
func NewGateway(feed ports.PriceFeed) *Gateway {
	return &Gateway{
		feed:       feed,
		nextTicket: 1,
		open:       make(map[int64]paperPosition),
	}
}

// OpenMarketOrder fills a buy at the current ask, a sell at the current
// bid, exactly as the terminal would.
func (g *Gateway) OpenMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.Fill, error) {
	snap, err := g.feed.GetSnapshot(ctx, req.Instrument)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("paper.OpenMarketOrder: %w", err)
	}

	price := snap.Ask
	if req.Side == domain.SideSell {
		price = snap.Bid
	}

	g.mu.Lock()
	ticket := g.nextTicket
	g.nextTicket++
	g.open[ticket] = paperPosition{instrument: req.Instrument, side: req.Side, volume: req.Volume}
	g.mu.Unlock()

	slog.Debug("paper: order filled",
		"ticket", ticket, "side", req.Side, "price", fmt.Sprintf("%.5f", price))
	return domain.Fill{Ticket: ticket, FillPrice: price}, nil
}

// ClosePosition fills the close at the opposing quote: a buy closes at
// bid, a sell at ask.
func (g *Gateway) ClosePosition(ctx context.Context, ticket int64, _ float64, side domain.Side) (domain.Fill, error) {
	g.mu.Lock()
	pos, ok := g.open[ticket]
	g.mu.Unlock()
	if !ok {
		return domain.Fill{}, &ports.GatewayError{Code: 0, Message: fmt.Sprintf("unknown paper ticket %d", ticket)}
	}

	snap, err := g.feed.GetSnapshot(ctx, pos.instrument)
	if err != nil {
		return domain.Fill{}, fmt.Errorf("paper.ClosePosition: ticket %d: %w", ticket, err)
	}

	price := snap.Bid
	if side == domain.SideSell {
		price = snap.Ask
	}

	g.mu.Lock()
	delete(g.open, ticket)
	g.mu.Unlock()

	slog.Debug("paper: position closed",
		"ticket", ticket, "side", side, "price", fmt.Sprintf("%.5f", price))
	return domain.Fill{Ticket: ticket, FillPrice: price}, nil
}

// Ping always succeeds; there is nothing to reach.
func (g *Gateway) Ping(context.Context) error { return nil }

// OpenCount returns the number of simulated positions still open.
func (g *Gateway) OpenCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.open)
}
