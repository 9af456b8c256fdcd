package live

import (
	"context"

	"github.com/rs/zerolog/log"

	"lobmm/internal/model"
)

// Gateway is the live loop's collaborator for actually talking to an
// exchange: placing/cancelling orders and polling for fills against our own
// resting quotes. The core never talks to a network socket directly;
// everything beyond this interface is host wiring.
type Gateway interface {
	PlaceOrder(ctx context.Context, o model.Order) error
	CancelOrder(ctx context.Context, orderID string) error
	// PollFills returns any fills against our resting quotes observed since
	// the last call.
	PollFills(ctx context.Context) ([]model.Fill, error)
}

// PaperGateway satisfies Gateway without touching a real exchange: it logs
// every action and reports no fills. This backs the --paper dry-run flag.
type PaperGateway struct{}

var _ Gateway = PaperGateway{}

func (PaperGateway) PlaceOrder(_ context.Context, o model.Order) error {
	log.Info().
		Str("order_id", o.ID).
		Str("side", o.Side.String()).
		Str("price", o.Price.String()).
		Str("size", o.RemainingSize.String()).
		Msg("paper: place order")
	return nil
}

func (PaperGateway) CancelOrder(_ context.Context, orderID string) error {
	log.Info().Str("order_id", orderID).Msg("paper: cancel order")
	return nil
}

func (PaperGateway) PollFills(_ context.Context) ([]model.Fill, error) {
	return nil, nil
}
