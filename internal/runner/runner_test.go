package runner

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/internal/wire"
	"github.com/threefoldtech/rmb-sdk-go/public/handler"
	"github.com/threefoldtech/rmb-sdk-go/public/router"
)

type calcState struct{}

func newTestRoot() *router.Tree[calcState] {
	root := router.New[calcState]()
	calc := root.Module("calculator")
	calc.HandleFunc("add", func(state calcState, in handler.Input) (*handler.Output, error) {
		var args struct {
			A float64 `json:"a"`
			B float64 `json:"b"`
		}
		if err := in.Inputs(&args); err != nil {
			return nil, err
		}
		return handler.OutputFrom(args.A + args.B)
	})
	calc.HandleFunc("div", func(state calcState, in handler.Input) (*handler.Output, error) {
		var args struct {
			A float64 `json:"a"`
			B float64 `json:"b"`
		}
		if err := in.Inputs(&args); err != nil {
			return nil, err
		}
		if args.B == 0 {
			return nil, errDivZero
		}
		return handler.OutputFrom(args.A / args.B)
	})
	return root
}

var errDivZero = &testError{"division by zero"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

// Run never panics on a malformed request, even with no reply queue to
// answer on: this is the "drop and log" path for a request nothing could
// be made of.
func TestRunDropsMalformedRequest(t *testing.T) {
	item := Item[calcState]{
		Raw: []byte("not json"),
		Log: zerolog.Nop(),
	}
	Run(item) // must not panic
}

// A request for a command with no registered handler is dropped rather
// than answered, matching the "log and continue" dispatch policy for
// handler-miss.
func TestRunDropsUnregisteredCommand(t *testing.T) {
	root := newTestRoot()
	req := &wire.Request{Command: "calculator.missing", Data: wire.EncodeBody([]byte("{}"))}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	item := Item[calcState]{
		Raw:  data,
		Root: root,
		Log:  zerolog.Nop(),
	}
	Run(item) // must not panic; no ReplyTo means reply() is a no-op
}

// With no ReplyTo set, Run resolves and invokes the handler but skips the
// reply push entirely (reply() short-circuits), exercising the success path
// without needing a live broker connection.
func TestRunInvokesHandlerWithoutReplyTo(t *testing.T) {
	root := newTestRoot()
	req := &wire.Request{
		Command: "calculator.add",
		Data:    wire.EncodeBody([]byte(`{"a":2,"b":3}`)),
	}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	item := Item[calcState]{
		Raw:  data,
		Root: root,
		Log:  zerolog.Nop(),
	}
	Run(item) // must not panic, no ReplyTo set so nothing is pushed
}

// Division by zero surfaces as a handler error; with no ReplyTo the runner
// still must not panic building the would-be error reply.
func TestRunHandlerErrorDivideByZero(t *testing.T) {
	root := newTestRoot()
	req := &wire.Request{
		Command: "calculator.div",
		Data:    wire.EncodeBody([]byte(`{"a":1,"b":0}`)),
	}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	item := Item[calcState]{
		Raw:  data,
		Root: root,
		Log:  zerolog.Nop(),
	}
	Run(item) // must not panic
}
