// Package control owns the per-ship bot channels and the hold-last
// fallback policy that keeps one misbehaving bot from touching the
// rest of the game.
package control

import (
	"context"
	"log"
	"sync"

	"github.com/lachiemurray/PhotonAi/internal/bot"
	"github.com/lachiemurray/PhotonAi/internal/world"
)

type entry struct {
	ch   bot.Channel
	last world.Control
	// seen flips once the ship has been observed alive; before that, a
	// missing ship means bring-up, not destruction.
	seen bool
}

// Bank maps each ship to its bot channel and last known-good control.
// Poll runs the bots concurrently with each other but every bot sees
// its own requests strictly in order.
type Bank struct {
	mu      sync.Mutex
	entries map[world.ObjectID]*entry
}

func NewBank(channels map[world.ObjectID]bot.Channel) *Bank {
	entries := make(map[world.ObjectID]*entry, len(channels))
	for id, ch := range channels {
		entries[id] = &entry{ch: ch}
	}
	return &Bank{entries: entries}
}

// Poll invokes every bot once with the step just applied. A bot whose
// ship is still alive gets a control request; on any failure the stored
// control is left untouched. A bot whose ship is gone gets one
// finalization request, then its channel is closed and dropped.
func (b *Bank) Poll(ctx context.Context, step *world.Step, w *world.World) {
	b.mu.Lock()
	ids := make([]world.ObjectID, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id world.ObjectID) {
			defer wg.Done()
			b.pollOne(ctx, step, w, id)
		}(id)
	}
	wg.Wait()
}

func (b *Bank) pollOne(ctx context.Context, step *world.Step, w *world.World, id world.ObjectID) {
	b.mu.Lock()
	e, ok := b.entries[id]
	b.mu.Unlock()
	if !ok {
		return
	}

	_, alive := w.Objects[id]
	if !alive && e.seen {
		if _, err := e.ch.Invoke(ctx, bot.Request{Step: step, ShipID: nil}); err != nil {
			log.Printf("bot %d: finalize: %v", id, err)
		}
		if err := e.ch.Close(); err != nil {
			log.Printf("bot %d: close: %v", id, err)
		}
		b.mu.Lock()
		delete(b.entries, id)
		b.mu.Unlock()
		return
	}

	// During bring-up the ship is not in the world yet; the bot still
	// gets the step (it needs the space data) and answers no control.
	if alive {
		b.mu.Lock()
		e.seen = true
		b.mu.Unlock()
	}

	shipID := id
	ctrl, err := e.ch.Invoke(ctx, bot.Request{Step: step, ShipID: &shipID})
	if err != nil {
		log.Printf("bot %d: %v (holding last control)", id, err)
		return
	}
	if ctrl == nil {
		return
	}
	b.mu.Lock()
	e.last = *ctrl
	b.mu.Unlock()
}

// Controls returns a copy of the current per-ship commands.
func (b *Bank) Controls() map[world.ObjectID]world.Control {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[world.ObjectID]world.Control, len(b.entries))
	for id, e := range b.entries {
		out[id] = e.last
	}
	return out
}

// Close releases every remaining channel. Used on driver teardown so no
// child process outlives the game, whatever path ended it.
func (b *Bank) Close() {
	b.mu.Lock()
	entries := b.entries
	b.entries = make(map[world.ObjectID]*entry)
	b.mu.Unlock()

	for id, e := range entries {
		if err := e.ch.Close(); err != nil {
			log.Printf("bot %d: close: %v", id, err)
		}
	}
}
