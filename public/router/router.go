// Package router implements the hierarchical dotted-path command tree that
// a server dispatches through. A Tree node owns its own handlers and named
// child modules; a dotted command path ("calculator.deep.test") is resolved
// by walking one path segment per module boundary.
//
// Called by: public/server (Functions to compute broker queue keys),
// internal/runner (Lookup during dispatch)
// Calls: public/handler, stdlib strings and sync
package router

import (
	"strings"
	"sync"

	"github.com/threefoldtech/rmb-sdk-go/public/handler"
)

// Tree is one node of the command hierarchy. The zero value is not usable;
// construct with New.
type Tree[S any] struct {
	mu       sync.RWMutex
	modules  map[string]*Tree[S]
	handlers map[string]handler.Handler[S]
}

// New returns an empty root Tree.
func New[S any]() *Tree[S] {
	return &Tree[S]{
		modules:  make(map[string]*Tree[S]),
		handlers: make(map[string]handler.Handler[S]),
	}
}

// Module returns the named child module, creating it on first use. name
// must not contain a dot; Module panics otherwise, matching Handle's
// registration-time strictness.
func (t *Tree[S]) Module(name string) *Tree[S] {
	if strings.Contains(name, ".") {
		panic("router: module name must not contain '.': " + name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if child, ok := t.modules[name]; ok {
		return child
	}
	child := New[S]()
	t.modules[name] = child
	return child
}

// Handle registers h under the given leaf name within this module. name
// must not contain a dot (build the path with Module for that) and must not
// already be registered: both are programmer errors and panic immediately,
// the way net/http.ServeMux.Handle panics on a duplicate pattern.
func (t *Tree[S]) Handle(name string, h handler.Handler[S]) {
	if strings.Contains(name, ".") {
		panic("router: handler name must not contain '.': " + name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.handlers[name]; ok {
		panic("router: handler already registered: " + name)
	}
	t.handlers[name] = h
}

// HandleFunc registers a plain function as a Handler.
func (t *Tree[S]) HandleFunc(name string, f func(state S, in handler.Input) (*handler.Output, error)) {
	t.Handle(name, handler.HandlerFunc[S](f))
}

// Lookup resolves a dotted command path from the root, descending one
// module per segment and resolving the final segment as a handler name.
func (t *Tree[S]) Lookup(path string) (handler.Handler[S], bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil, false
	}

	node := t
	for _, seg := range segments[:len(segments)-1] {
		node.mu.RLock()
		child, ok := node.modules[seg]
		node.mu.RUnlock()
		if !ok {
			return nil, false
		}
		node = child
	}

	leaf := segments[len(segments)-1]
	node.mu.RLock()
	defer node.mu.RUnlock()
	h, ok := node.handlers[leaf]
	return h, ok
}

// Functions returns the full dotted path of every handler reachable from
// this node, in no particular order. Used by the server to compute the set
// of broker queue keys it must listen on.
func (t *Tree[S]) Functions() []string {
	var out []string
	t.collect("", &out)
	return out
}

func (t *Tree[S]) collect(prefix string, out *[]string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for name := range t.handlers {
		*out = append(*out, join(prefix, name))
	}
	for name, child := range t.modules {
		child.collect(join(prefix, name), out)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
