// Package handler defines the shape of a routable function: its input,
// its output, and the generic trait user code implements to handle a
// command.
//
// Called by: public/router (registration and lookup), internal/runner
// (invocation)
// Calls: encoding/json
package handler

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ErrUnsupportedSchema is returned when an Input's declared schema is not
// "application/json" (the only body encoding this module understands).
var ErrUnsupportedSchema = errors.New("handler: unsupported schema")

// Input is what a handler receives for a single invocation.
type Input struct {
	// Source is the twin identifier the request arrived from, as a
	// string (see SourceTwin for the parsed numeric form).
	Source string
	// Data is the raw, already base64-decoded request body.
	Data []byte
	// Schema names the body's media type; empty means
	// "application/json".
	Schema string
	// Tags carries the caller's free-form forwarding hint, if any.
	Tags string
}

// SourceTwin parses Source as the calling twin's numeric id, so a handler
// doesn't have to re-parse it itself.
func (in Input) SourceTwin() (uint32, error) {
	id, err := strconv.ParseUint(in.Source, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "handler: parse source twin %q", in.Source)
	}
	return uint32(id), nil
}

// Inputs decodes Data into v. It only understands application/json bodies;
// any other declared schema yields ErrUnsupportedSchema.
func (in Input) Inputs(v interface{}) error {
	schema := in.Schema
	if schema == "" {
		schema = "application/json"
	}
	if schema != "application/json" {
		return errors.Wrapf(ErrUnsupportedSchema, "got %q", schema)
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		return errors.Wrap(err, "handler: decode input")
	}
	return nil
}

// Output is what a handler returns on success.
type Output struct {
	Data   []byte
	Schema string
}

// OutputFrom JSON-encodes v into an Output with the default schema.
func OutputFrom(v interface{}) (*Output, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "handler: encode output")
	}
	return &Output{Data: data, Schema: "application/json"}, nil
}

// Handler is the generic command trait user code implements. S is the
// caller-supplied application state type, passed by value per invocation.
type Handler[S any] interface {
	Handle(state S, in Input) (*Output, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc[S any] func(state S, in Input) (*Output, error)

// Handle calls f(state, in).
func (f HandlerFunc[S]) Handle(state S, in Input) (*Output, error) {
	return f(state, in)
}
