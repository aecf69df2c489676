package bot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/lachiemurray/PhotonAi/internal/world"
)

// DefaultGrace is how long Close waits for a child to exit after its
// stdin is closed before killing it.
const DefaultGrace = time.Second

type call struct {
	req  Request
	resp chan callResult
}

type callResult struct {
	ctrl *world.Control
	err  error
}

// Subprocess talks to a bot running as a child process, one framed
// request and one framed response per tick over stdin/stdout. The
// child's stderr passes straight through to ours; it never carries
// protocol data.
//
// A single worker goroutine owns the pipes, so requests are strictly
// serialized. If the child misses a deadline the worker stays blocked
// on its answer and every later Invoke times out at the handoff; that
// escalation is deliberate, the caller is expected to hold the last
// good command for the rest of the game.
type Subprocess struct {
	cmd     *exec.Cmd
	stdin   *Encoder
	stdinC  interface{ Close() error }
	timeout time.Duration
	grace   time.Duration

	calls  chan call
	closed chan struct{}
	once   sync.Once
}

// StartSubprocess launches command and wires the wire protocol to its
// standard streams. The returned channel must be closed by the caller.
func StartSubprocess(command []string, timeout time.Duration) (*Subprocess, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("subprocess bot: empty command")
	}
	cmd := exec.Command(command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocess bot: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocess bot: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("subprocess bot: start %q: %w", command[0], err)
	}

	s := &Subprocess{
		cmd:     cmd,
		stdin:   NewEncoder(stdin),
		stdinC:  stdin,
		timeout: timeout,
		grace:   DefaultGrace,
		calls:   make(chan call),
		closed:  make(chan struct{}),
	}
	go s.worker(NewDecoder(stdout))
	return s, nil
}

func (s *Subprocess) worker(dec *Decoder) {
	for {
		select {
		case <-s.closed:
			return
		case c := <-s.calls:
			c.resp <- s.roundTrip(dec, c.req)
		}
	}
}

func (s *Subprocess) roundTrip(dec *Decoder, req Request) callResult {
	if err := s.stdin.Encode(&req); err != nil {
		return callResult{err: fmt.Errorf("subprocess bot: send: %w", err)}
	}
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return callResult{err: fmt.Errorf("subprocess bot: recv: %w", err)}
	}
	return callResult{ctrl: resp.Control}
}

// Invoke sends one request and waits for its response, bounded by the
// configured timeout and ctx. A timeout abandons the wait only; the
// request stays outstanding on the wire and is never retried.
func (s *Subprocess) Invoke(ctx context.Context, req Request) (*world.Control, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	c := call{req: req, resp: make(chan callResult, 1)}
	select {
	case s.calls <- c:
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrClosed
	}

	select {
	case r := <-c.resp:
		return r.ctrl, r.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrClosed
	}
}

// Close stops accepting requests, gives the child a grace period to
// exit after seeing EOF on stdin, then kills it. Safe to call twice.
func (s *Subprocess) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.stdinC.Close()

		done := make(chan struct{})
		go func() {
			s.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(s.grace):
			s.cmd.Process.Kill()
			<-done
		}
	})
	return nil
}
