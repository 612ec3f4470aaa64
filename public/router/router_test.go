package router

import (
	"testing"

	"github.com/threefoldtech/rmb-sdk-go/public/handler"
)

func echoHandler[S any](label string) handler.Handler[S] {
	return handler.HandlerFunc[S](func(state S, in handler.Input) (*handler.Output, error) {
		return handler.OutputFrom(label)
	})
}

func TestLookupTopLevelHandler(t *testing.T) {
	root := New[struct{}]()
	root.Handle("version", echoHandler[struct{}]("version"))

	h, ok := root.Lookup("version")
	if !ok || h == nil {
		t.Fatal("expected to find top-level handler")
	}
}

func TestLookupNestedModules(t *testing.T) {
	root := New[struct{}]()
	root.Module("calculator").Module("deep").Handle("test", echoHandler[struct{}]("deep.test"))

	h, ok := root.Lookup("calculator.deep.test")
	if !ok || h == nil {
		t.Fatal("expected to find nested handler at calculator.deep.test")
	}

	_, ok = root.Lookup("calculator.deep.missing")
	if ok {
		t.Fatal("expected lookup miss for unregistered leaf")
	}

	_, ok = root.Lookup("nonexistent.module.path")
	if ok {
		t.Fatal("expected lookup miss for unregistered module")
	}
}

func TestHandleFuncAddsCallableHandler(t *testing.T) {
	root := New[int]()
	root.Module("calculator").HandleFunc("add", func(state int, in handler.Input) (*handler.Output, error) {
		return handler.OutputFrom(state)
	})

	h, ok := root.Lookup("calculator.add")
	if !ok {
		t.Fatal("expected to find calculator.add")
	}
	out, err := h.Handle(5, handler.Input{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if string(out.Data) != "5" {
		t.Fatalf("got %s", out.Data)
	}
}

func TestHandlePanicsOnDottedName(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic registering a dotted handler name")
		}
	}()
	root := New[struct{}]()
	root.Handle("calculator.add", echoHandler[struct{}]("x"))
}

func TestHandlePanicsOnDuplicateRegistration(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	root := New[struct{}]()
	root.Handle("add", echoHandler[struct{}]("x"))
	root.Handle("add", echoHandler[struct{}]("y"))
}

func TestModulePanicsOnDottedName(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic creating a dotted module name")
		}
	}()
	root := New[struct{}]()
	root.Module("calculator.deep")
}

func TestFunctionsEnumeratesAllHandlers(t *testing.T) {
	root := New[struct{}]()
	root.Handle("version", echoHandler[struct{}]("v"))
	calc := root.Module("calculator")
	calc.Handle("add", echoHandler[struct{}]("add"))
	calc.Handle("div", echoHandler[struct{}]("div"))
	calc.Module("deep").Handle("test", echoHandler[struct{}]("deep.test"))

	got := root.Functions()
	want := map[string]bool{
		"version":             true,
		"calculator.add":      true,
		"calculator.div":      true,
		"calculator.deep.test": true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d functions, want %d: %v", len(got), len(want), got)
	}
	for _, fn := range got {
		if !want[fn] {
			t.Errorf("unexpected function %q", fn)
		}
	}
}
