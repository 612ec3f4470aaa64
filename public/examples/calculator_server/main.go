// Command calculator_server is a runnable illustration of the server side
// of this module: it registers a handful of arithmetic commands under a
// nested module tree and runs the dispatch loop until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/public/handler"
	"github.com/threefoldtech/rmb-sdk-go/public/router"
	"github.com/threefoldtech/rmb-sdk-go/public/server"
)

// AppState is the application state shared with every handler. It is
// copied by value per invocation; this example keeps no mutable fields, so
// the copy is free.
type AppState struct {
	Version string
}

type operands struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type result struct {
	Result float64 `json:"result"`
}

func add(state AppState, in handler.Input) (*handler.Output, error) {
	var args operands
	if err := in.Inputs(&args); err != nil {
		return nil, err
	}
	return handler.OutputFrom(result{Result: args.A + args.B})
}

func div(state AppState, in handler.Input) (*handler.Output, error) {
	var args operands
	if err := in.Inputs(&args); err != nil {
		return nil, err
	}
	if args.B == 0 {
		return nil, errDivideByZero
	}
	return handler.OutputFrom(result{Result: args.A / args.B})
}

func deepTest(state AppState, in handler.Input) (*handler.Output, error) {
	return handler.OutputFrom(result{Result: 42})
}

func sqr(state AppState, in handler.Input) (*handler.Output, error) {
	var args operands
	if err := in.Inputs(&args); err != nil {
		return nil, err
	}
	return handler.OutputFrom(result{Result: args.A * args.A})
}

func version(state AppState, in handler.Input) (*handler.Output, error) {
	return handler.OutputFrom(struct {
		Version string `json:"version"`
	}{Version: state.Version})
}

func main() {
	brokerURL := flag.String("broker", "tcp://localhost:6379", "broker address (tcp:// or unix://)")
	workers := flag.Int("workers", 5, "worker pool size")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	root := router.New[AppState]()
	calculator := root.Module("calculator")
	calculator.HandleFunc("add", add)
	calculator.HandleFunc("div", div)
	calculator.Module("deep").HandleFunc("test", deepTest)
	root.Module("scientific").HandleFunc("sqr", sqr)
	root.HandleFunc("version", version)

	state := AppState{Version: "0.1.0"}

	srv, err := server.New(server.Config{
		BrokerURL: *brokerURL,
		Workers:   *workers,
		Debug:     *debug,
	}, root, state, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("calculator_server: failed to connect to broker")
	}
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().Str("broker", *brokerURL).Msg("calculator_server: dispatch loop starting")
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("calculator_server: dispatch loop exited")
	}
}
