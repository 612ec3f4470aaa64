// Package workerpool implements a bounded rendezvous pool: a fixed number
// of long-lived goroutines, each with its own work channel, handed out to
// callers through a shared "available" channel. A caller that can't get a
// worker blocks until one frees up rather than queuing unbounded work in
// memory.
//
// Called by: public/server (Send one Item per popped request)
// Calls: internal/runner, github.com/prometheus/client_golang/prometheus
package workerpool

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threefoldtech/rmb-sdk-go/internal/runner"
)

var (
	busyWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rmb",
		Subsystem: "workerpool",
		Name:      "busy_workers",
		Help:      "Number of worker goroutines currently running an item.",
	})
	workItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rmb",
		Subsystem: "workerpool",
		Name:      "work_items_total",
		Help:      "Work items processed, labeled by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(busyWorkers, workItemsTotal)
}

type worker[S any] struct {
	work chan runner.Item[S]
}

// Pool is a bounded set of worker goroutines.
type Pool[S any] struct {
	available chan *worker[S]
	done      chan struct{}
}

// New starts size worker goroutines and returns the pool that dispatches to
// them. size must be at least 1.
func New[S any](size int) *Pool[S] {
	if size < 1 {
		size = 1
	}

	p := &Pool[S]{
		available: make(chan *worker[S], size),
		done:      make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		w := &worker[S]{work: make(chan runner.Item[S])}
		go p.run(w)
	}

	return p
}

func (p *Pool[S]) run(w *worker[S]) {
	for {
		p.available <- w
		select {
		case item := <-w.work:
			busyWorkers.Inc()
			runner.Run(item)
			busyWorkers.Dec()
			workItemsTotal.WithLabelValues("processed").Inc()
		case <-p.done:
			return
		}
	}
}

// Send blocks until a worker is free, then hands it item. It returns
// immediately after handoff; it does not wait for the item to finish.
func (p *Pool[S]) Send(item runner.Item[S]) {
	select {
	case w := <-p.available:
		w.work <- item
	case <-p.done:
		workItemsTotal.WithLabelValues("dropped").Inc()
	}
}

// Stop signals all workers to exit after their current item, if any.
func (p *Pool[S]) Stop() {
	close(p.done)
}
