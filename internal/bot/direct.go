package bot

import (
	"context"
	"fmt"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

// Handler is in-process decision logic: given the bot's view of the
// world and its own ship, produce the next control command.
type Handler interface {
	Act(w *world.World, ship *world.Body) world.Control
}

// Direct runs a Handler synchronously in the calling goroutine. It
// keeps its own world replica built from the step stream, so handlers
// see the same state a subprocess bot would.
type Direct struct {
	handler Handler
	replica *world.World
}

func NewDirect(h Handler) *Direct {
	return &Direct{handler: h, replica: world.New()}
}

func (d *Direct) Invoke(ctx context.Context, req Request) (*world.Control, error) {
	if req.Step != nil {
		if err := d.replica.Apply(req.Step); err != nil {
			return nil, fmt.Errorf("direct bot: %w", err)
		}
	}
	if req.ShipID == nil {
		return nil, nil
	}
	// During bring-up the ship may not be in the replica yet; answer
	// "no control" rather than failing, as a wire bot would.
	ship, ok := d.replica.Objects[*req.ShipID]
	if !ok {
		return nil, nil
	}
	ctrl := d.handler.Act(d.replica, ship)
	return &ctrl, nil
}

func (d *Direct) Close() error { return nil }
