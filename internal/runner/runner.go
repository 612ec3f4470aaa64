// Package runner implements the single-request work item: decode a wire
// request, look it up in the command tree, invoke the handler against a
// fresh copy of the application state, and push a wire response back onto
// the caller's reply queue.
//
// Called by: internal/workerpool (one Item.Run per dispatched request)
// Calls: internal/wire, internal/queue, public/router, public/handler
package runner

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/internal/queue"
	"github.com/threefoldtech/rmb-sdk-go/internal/wire"
	"github.com/threefoldtech/rmb-sdk-go/public/handler"
	"github.com/threefoldtech/rmb-sdk-go/public/router"
)

// Item is one piece of work handed from the dispatch loop to a worker: the
// raw bytes popped off a command queue, paired with everything needed to
// run it to completion.
type Item[S any] struct {
	Raw   []byte
	State S
	Root  *router.Tree[S]
	Pool  *queue.Pool
	Log   zerolog.Logger
}

// Run decodes Raw, resolves the command, invokes the matching handler, and
// pushes a response to the request's reply queue. Nothing is propagated to
// the caller, matching the "log and continue" dispatch-loop error policy: a
// request that is not valid JSON, or whose command has no handler, is logged
// and dropped without a reply; a body that is not valid base64 and a handler
// error are each answered with an error response when a reply queue is set.
func Run[S any](item Item[S]) {
	req, err := wire.DecodeRequest(item.Raw)
	if err != nil {
		item.Log.Error().Err(err).Msg("runner: dropping malformed request")
		return
	}

	body, err := wire.DecodeBody(req.Data)
	if err != nil {
		item.reply(req, nil, &wire.ResponseError{Code: 0, Message: "bad base64"})
		return
	}

	h, ok := item.Root.Lookup(req.Command)
	if !ok {
		item.Log.Warn().Str("cmd", req.Command).Msg("runner: no handler registered, dropping")
		return
	}

	in := handler.Input{
		Source: req.Source,
		Data:   body,
		Schema: req.Schema,
		Tags:   req.Tags,
	}

	out, err := h.Handle(item.State, in)
	if err != nil {
		item.reply(req, nil, &wire.ResponseError{Code: 0, Message: err.Error()})
		return
	}

	item.reply(req, out, nil)
}

func (item Item[S]) reply(req *wire.Request, out *handler.Output, respErr *wire.ResponseError) {
	if req.ReplyTo == "" {
		return
	}

	resp := &wire.Response{
		Version:     1,
		Reference:   req.Reference,
		Destination: req.Source,
		Timestamp:   uint64(time.Now().Unix()),
		Error:       respErr,
	}
	if out != nil {
		resp.Data = wire.EncodeBody(out.Data)
		resp.Schema = out.Schema
	}

	data, err := wire.EncodeResponse(resp)
	if err != nil {
		item.Log.Error().Err(err).Msg("runner: failed to encode response")
		return
	}

	conn := item.Pool.Acquire()
	defer conn.Release()
	if err := conn.Rpush(req.ReplyTo, data); err != nil {
		item.Log.Error().Err(errors.Wrap(err, "runner: push reply")).Str("queue", req.ReplyTo).Msg("runner: failed to deliver reply")
	}
}
