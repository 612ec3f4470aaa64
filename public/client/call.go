package client

import (
	"context"
	"fmt"
	"time"

	"github.com/threefoldtech/rmb-sdk-go/internal/queue"
	"github.com/threefoldtech/rmb-sdk-go/internal/wire"
	"github.com/threefoldtech/rmb-sdk-go/public/handler"
)

// RemoteError is returned when a destination's handler itself failed; the
// message is whatever the handler's error produced on the other end.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("client: remote error: %s", e.Message)
}

// ProtocolError is returned when a request has no destinations to send to,
// when popping the reply queue fails, or when a reply could not be decoded
// as a valid wire response.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("client: protocol error: %s", e.Message)
}

// Return is one destination's reply.
type Return struct {
	Source string
	Output *handler.Output
	Err    error
}

// Outputs decodes the reply body into v, returning Err unchanged if the
// reply itself failed.
func (r Return) Outputs(v interface{}) error {
	if r.Err != nil {
		return r.Err
	}
	in := handler.Input{Data: r.Output.Data, Schema: r.Output.Schema}
	return in.Inputs(v)
}

// Call is the fan-in collector for one outgoing request: it yields one
// reply at a time, up to one per destination, up to the request's
// deadline.
type Call struct {
	replyQueue string
	pool       *queue.Pool
	deadline   time.Time
	remaining  int
}

// Remaining reports how many destinations have not yet yielded a Return.
// destination_count - Remaining() is the number of Get calls that have
// returned a Return so far.
func (c *Call) Remaining() int {
	return c.remaining
}

// Get blocks until the next reply arrives, ctx is done, or the call's
// deadline expires, whichever comes first, and yields it. Once every
// destination has replied, or the deadline has passed, Get returns
// (Return{}, false) on every subsequent call.
func (c *Call) Get(ctx context.Context) (Return, bool) {
	if c.remaining <= 0 {
		return Return{}, false
	}

	for {
		remaining := time.Until(c.deadline)
		if remaining <= 0 {
			return Return{}, false
		}

		select {
		case <-ctx.Done():
			return Return{}, false
		default:
		}

		conn := c.pool.Acquire()
		_, value, ok, err := conn.Brpop([]string{c.replyQueue}, minDuration(remaining, time.Second))
		conn.Release()

		if err != nil {
			c.remaining--
			return Return{Err: &ProtocolError{Message: err.Error()}}, true
		}
		if !ok {
			continue
		}

		resp, err := wire.DecodeResponse(value)
		if err != nil {
			c.remaining--
			return Return{Err: &ProtocolError{Message: err.Error()}}, true
		}

		c.remaining--
		return toReturn(resp), true
	}
}

func toReturn(resp *wire.Response) Return {
	if resp.Error != nil {
		return Return{Source: resp.Source, Err: &RemoteError{Message: resp.Error.Message}}
	}

	body, err := wire.DecodeBody(resp.Data)
	if err != nil {
		return Return{Source: resp.Source, Err: &ProtocolError{Message: err.Error()}}
	}

	return Return{
		Source: resp.Source,
		Output: &handler.Output{Data: body, Schema: resp.Schema},
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
