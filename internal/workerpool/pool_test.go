package workerpool

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/internal/runner"
	"github.com/threefoldtech/rmb-sdk-go/internal/wire"
	"github.com/threefoldtech/rmb-sdk-go/public/handler"
	"github.com/threefoldtech/rmb-sdk-go/public/router"
)

func TestPoolDispatchesToAllWorkers(t *testing.T) {
	root := router.New[struct{}]()
	var mu sync.Mutex
	count := 0
	root.HandleFunc("ping", func(state struct{}, in handler.Input) (*handler.Output, error) {
		mu.Lock()
		count++
		mu.Unlock()
		return handler.OutputFrom("pong")
	})

	pool := New[struct{}](2)
	defer pool.Stop()

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		req := &wire.Request{Command: "ping", Data: wire.EncodeBody([]byte("{}"))}
		data, err := wire.EncodeRequest(req)
		if err != nil {
			t.Fatalf("EncodeRequest: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Send(runner.Item[struct{}]{Raw: data, Root: root, Log: zerolog.Nop()})
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		c := count
		mu.Unlock()
		if c == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d handler invocations, got %d", n, count)
}
