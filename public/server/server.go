// Package server implements the dispatch loop that turns a registered
// command tree into a running endpoint: one broker queue per registered
// command, blocking-popped in a loop and handed off to a bounded worker
// pool.
//
// Called by: public/examples/calculator_server and any user-written main
// Calls: internal/queue, internal/workerpool, internal/runner, public/router
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/internal/queue"
	"github.com/threefoldtech/rmb-sdk-go/internal/runner"
	"github.com/threefoldtech/rmb-sdk-go/internal/workerpool"
	"github.com/threefoldtech/rmb-sdk-go/public/router"
)

const (
	queuePrefix    = "msgbus."
	popTimeout     = 2 * time.Second
	errorBackoff   = 2 * time.Second
	defaultWorkers = 5
)

// Config describes how to reach the broker and how many workers to run.
type Config struct {
	// BrokerURL is a tcp:// or unix:// address, e.g. "tcp://localhost:6379".
	BrokerURL string
	// Workers is the worker pool size; defaults to 5 when <= 0.
	Workers int
	// Debug records whether the caller wants debug output. The server does
	// not read it; log verbosity is set by the logger passed to New.
	Debug bool
}

// Server runs the blocking-pop dispatch loop over every command registered
// on its Root tree. S is the application state type shared with handlers.
type Server[S any] struct {
	root  *router.Tree[S]
	state S
	pool  *queue.Pool
	wp    *workerpool.Pool[S]
	log   zerolog.Logger
}

// New connects to the broker described by cfg and returns a Server ready to
// Run. The queue keys are computed from root when Run starts; commands
// added after that won't be listened on.
func New[S any](cfg Config, root *router.Tree[S], state S, logger zerolog.Logger) (*Server[S], error) {
	pool, err := queue.Connect(cfg.BrokerURL)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Server[S]{
		root:  root,
		state: state,
		pool:  pool,
		wp:    workerpool.New[S](workers),
		log:   logger,
	}, nil
}

// Run blocks, popping work off every registered command's queue and
// handing it to the worker pool, until ctx is canceled. Broker errors are
// logged and retried after a fixed backoff rather than ending the loop,
// matching the "log and continue" dispatch policy.
func (s *Server[S]) Run(ctx context.Context) error {
	defer s.wp.Stop()

	functions := s.root.Functions()
	keys := make([]string, len(functions))
	for i, fn := range functions {
		keys[i] = queuePrefix + fn
	}

	if len(keys) == 0 {
		s.log.Warn().Msg("server: no commands registered, nothing to dispatch")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if len(keys) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(popTimeout):
			}
			continue
		}

		conn := s.pool.Acquire()
		_, value, ok, err := conn.Brpop(keys, popTimeout)
		conn.Release()

		if err != nil {
			s.log.Error().Err(err).Msg("server: broker pop failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		if !ok {
			continue
		}

		s.wp.Send(runner.Item[S]{
			Raw:   value,
			State: s.state,
			Root:  s.root,
			Pool:  s.pool,
			Log:   s.log,
		})
	}
}

// MetricsHandler exposes the worker pool's Prometheus metrics for callers
// who want to mount an HTTP exporter. The server itself never listens on
// HTTP.
func (s *Server[S]) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Close releases the broker connection pool.
func (s *Server[S]) Close() error {
	return s.pool.Close()
}
