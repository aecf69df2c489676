// Package bot binds the simulation to external decision processes. A
// Channel is a stop-and-wait RPC to one bot: each tick's step goes out,
// one control command comes back, and a bot that misses its deadline is
// never waited on again (the caller holds its last command instead).
package bot

import (
	"context"
	"errors"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

var (
	// ErrTimeout reports that a bot did not answer within its deadline.
	ErrTimeout = errors.New("bot: invocation timed out")
	// ErrClosed reports an invocation against a closed channel.
	ErrClosed = errors.New("bot: channel closed")
)

// Request is one invocation payload: the step just applied, and the id
// of the ship being controlled. A nil ShipID tells the bot its ship no
// longer exists; the bot should finalize and expect no more requests.
type Request struct {
	Step   *world.Step     `json:"step" msgpack:"step"`
	ShipID *world.ObjectID `json:"ship_id" msgpack:"ship_id"`
}

// Response is the bot's answer. A nil Control means "no update".
type Response struct {
	Control *world.Control `json:"control" msgpack:"control"`
}

// Channel is the communication binding to one bot. Invoke follows
// strict send-then-receive order; concurrent invocations on the same
// channel are not supported. Close must be safe to call more than once.
type Channel interface {
	Invoke(ctx context.Context, req Request) (*world.Control, error)
	Close() error
}
