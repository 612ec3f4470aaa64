// Package client implements the caller side of the bus: building a request,
// sending it to one or more destination twins, and collecting replies.
//
// Called by: public/examples/calculator_client and any user-written main
// Calls: internal/wire, internal/queue, github.com/google/uuid
package client

import (
	"time"

	"github.com/threefoldtech/rmb-sdk-go/public/handler"
)

// Request is built with a fluent API and then passed to Client.Send.
type Request struct {
	command      string
	destinations []uint32
	expiration   time.Duration
	tags         string
	body         []byte
	schema       string
}

// NewRequest starts building a request for the given dotted command path.
func NewRequest(command string) *Request {
	return &Request{
		command:    command,
		expiration: 60 * time.Second,
		schema:     "application/json",
	}
}

// Destination adds a single twin id to the destination set.
func (r *Request) Destination(twin uint32) *Request {
	r.destinations = append(r.destinations, twin)
	return r
}

// Destinations adds every twin id in twins to the destination set.
func (r *Request) Destinations(twins []uint32) *Request {
	r.destinations = append(r.destinations, twins...)
	return r
}

// Expiration overrides the default 60s request deadline.
func (r *Request) Expiration(d time.Duration) *Request {
	r.expiration = d
	return r
}

// Tags attaches a free-form forwarding hint to the request.
func (r *Request) Tags(tags string) *Request {
	r.tags = tags
	return r
}

// Args JSON-encodes v as the request body.
func (r *Request) Args(v interface{}) (*Request, error) {
	out, err := handler.OutputFrom(v)
	if err != nil {
		return nil, err
	}
	r.body = out.Data
	r.schema = out.Schema
	return r, nil
}
