// Command calculator_client is a runnable illustration of the client side
// of this module: it builds a request, sends it to the calculator server,
// and prints whatever replies arrive before the deadline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/public/client"
)

type operands struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type result struct {
	Result float64 `json:"result"`
}

func main() {
	brokerURL := flag.String("broker", "tcp://localhost:6379", "broker address (tcp:// or unix://)")
	command := flag.String("cmd", "calculator.add", "dotted command to invoke")
	dest := flag.Uint("dest", 1, "destination twin id")
	timeout := flag.Duration("timeout", 10*time.Second, "request deadline")
	a := flag.Float64("a", 1, "first operand")
	b := flag.Float64("b", 2, "second operand")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	c, err := client.New(client.Config{BrokerURL: *brokerURL, Source: "0"}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("calculator_client: failed to connect to broker")
	}
	defer c.Close()

	req, err := client.NewRequest(*command).
		Destination(uint32(*dest)).
		Expiration(*timeout).
		Args(operands{A: *a, B: *b})
	if err != nil {
		logger.Fatal().Err(err).Msg("calculator_client: failed to build request")
	}

	call, err := c.Send(req)
	if err != nil {
		logger.Fatal().Err(err).Msg("calculator_client: failed to send request")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	for {
		ret, ok := call.Get(ctx)
		if !ok {
			break
		}
		var out result
		if err := ret.Outputs(&out); err != nil {
			fmt.Printf("reply from %s: error: %v\n", ret.Source, err)
			continue
		}
		fmt.Printf("reply from %s: %.2f\n", ret.Source, out.Result)
	}
}
