// Package wire defines the request/response records exchanged over the
// message bus and their canonical JSON encoding.
//
// Both records use short field names on the wire (ver, ref, cmd, ...) to
// match the layout shared by every twin, client, and broker daemon in the
// bus: the encoding here is a contract, not an implementation detail, so
// field names and omitempty behavior must not drift from what brokers in
// the wild already expect.
//
// Called by: internal/queue (push/pop raw bytes), internal/runner (decode
// incoming requests, encode responses), public/client (build and decode)
// Calls: encoding/json, encoding/base64
package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// Request is the wire form of an outgoing or incoming bus message.
//
// Destinations is populated only on outgoing requests (client -> broker).
// Source is read on incoming requests (broker -> server); public/client
// also fills it on outgoing requests from its configured twin id. Both
// fields are legal to leave zero on the side that doesn't use them.
type Request struct {
	Version      uint     `json:"ver"`
	Reference    string   `json:"ref,omitempty"`
	Command      string   `json:"cmd"`
	Expiration   uint     `json:"exp"`
	Data         string   `json:"dat"`
	Tags         string   `json:"tag,omitempty"`
	Destinations []uint32 `json:"dst,omitempty"`
	ReplyTo      string   `json:"ret"`
	Schema       string   `json:"shm,omitempty"`
	Timestamp    uint64   `json:"now"`
	Source       string   `json:"src,omitempty"`
}

// ResponseError carries the relayed message when a handler fails.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is the wire form of a reply pushed back onto a reply queue.
type Response struct {
	Version     uint           `json:"ver"`
	Reference   string         `json:"ref,omitempty"`
	Data        string         `json:"dat"`
	Source      string         `json:"src,omitempty"`
	Destination string         `json:"dst,omitempty"`
	Schema      string         `json:"shm,omitempty"`
	Timestamp   uint64         `json:"now"`
	Error       *ResponseError `json:"err,omitempty"`
}

// DecodeError is returned when a field of a wire record fails to decode.
// It names the offending field so callers can log or relay something more
// useful than "invalid JSON"; when the input is not a well-formed JSON
// object at all, Field names the record ("request" or "response").
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return "wire: failed to decode field " + e.Field + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeRequest parses a JSON-encoded Request. The top-level value must be a
// JSON object; anything else (array, scalar, null) is rejected.
func DecodeRequest(data []byte) (*Request, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, &DecodeError{Field: "request", Err: errors.New("top-level value is null, want a JSON object")}
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		field := "request"
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field = typeErr.Field
		}
		return nil, &DecodeError{Field: field, Err: err}
	}
	return &req, nil
}

// EncodeRequest serializes a Request to its canonical JSON form.
func EncodeRequest(req *Request) ([]byte, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "wire: failed to encode request")
	}
	return b, nil
}

// DecodeResponse parses a JSON-encoded Response.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		field := "response"
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field = typeErr.Field
		}
		return nil, &DecodeError{Field: field, Err: err}
	}
	return &resp, nil
}

// EncodeResponse serializes a Response to its canonical JSON form.
func EncodeResponse(resp *Response) ([]byte, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, errors.Wrap(err, "wire: failed to encode response")
	}
	return b, nil
}

// EncodeBody base64-encodes a raw message body for the Data field.
func EncodeBody(body []byte) string {
	return base64.StdEncoding.EncodeToString(body)
}

// DecodeBody decodes the base64 Data field back into a raw message body.
func DecodeBody(data string) ([]byte, error) {
	body, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodeError{Field: "dat", Err: err}
	}
	return body, nil
}

// EffectiveSchema returns schema, treating an empty schema the same as
// "application/json" per the codec's documented default.
func EffectiveSchema(schema string) string {
	if schema == "" {
		return "application/json"
	}
	return schema
}
