package bot

import (
	"errors"
	"fmt"
	"io"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

// Serve runs the bot side of the wire protocol: decode requests from r,
// maintain a world replica from the step stream, and answer each
// request with the handler's control on w. It returns nil when the
// engine signals finalization (nil ship id) or closes the stream.
//
// Only protocol frames may be written to w; diagnostics belong on
// stderr.
func Serve(r io.Reader, w io.Writer, h Handler) error {
	dec := NewDecoder(r)
	enc := NewEncoder(w)
	replica := world.New()

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("bot serve: %w", err)
		}
		if req.Step != nil {
			if err := replica.Apply(req.Step); err != nil {
				return fmt.Errorf("bot serve: %w", err)
			}
		}

		var resp Response
		if req.ShipID != nil {
			if ship, ok := replica.Objects[*req.ShipID]; ok {
				ctrl := h.Act(replica, ship)
				resp.Control = &ctrl
			}
		}
		if err := enc.Encode(&resp); err != nil {
			return fmt.Errorf("bot serve: %w", err)
		}
		if req.ShipID == nil {
			return nil
		}
	}
}
