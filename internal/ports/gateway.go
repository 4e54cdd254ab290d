package ports

import (
	"context"
	"fmt"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

// GatewayError is a rejection from the trading terminal, carrying the
// terminal's numeric return code so callers can surface a readable reason.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// OrderGateway places and closes market orders through the terminal bridge.
type OrderGateway interface {
	// OpenMarketOrder submits a market order for one leg and waits for
	// the fill acknowledgment (bounded by ctx).
	OpenMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.Fill, error)

	// ClosePosition closes the given ticket at the best available price.
	// side is the side the position was opened with.
	ClosePosition(ctx context.Context, ticket int64, volume float64, side domain.Side) (domain.Fill, error)

	// Ping verifies terminal connectivity. Called once at startup;
	// failure is fatal (non-zero exit).
	Ping(ctx context.Context) error
}
