package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/threefoldtech/rmb-sdk-go/internal/queue"
	"github.com/threefoldtech/rmb-sdk-go/internal/wire"
)

// systemLocalQueue is where every outgoing request is pushed; a broker
// fans it out from there to each destination twin's command queue.
const systemLocalQueue = "msgbus.system.local"

// Config describes how to reach the broker.
type Config struct {
	// BrokerURL is a tcp:// or unix:// address.
	BrokerURL string
	// Source identifies this client's own twin id on outgoing requests.
	Source string
}

// Client sends requests onto the bus and hands back a Call to collect
// replies on.
type Client struct {
	pool   *queue.Pool
	source string
	log    zerolog.Logger
}

// New connects to the broker described by cfg.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	pool, err := queue.Connect(cfg.BrokerURL)
	if err != nil {
		return nil, err
	}
	return &Client{pool: pool, source: cfg.Source, log: logger}, nil
}

// Send pushes req, carrying every destination in a single Destinations
// list, onto "msgbus.system.local" and returns a Call that collects one
// reply per destination. A broker is responsible for fanning the request
// out from system.local to each destination's "msgbus.<command>" queue;
// the client never pushes directly to a command queue. At least one
// destination must have been set on req.
func (c *Client) Send(req *Request) (*Call, error) {
	if len(req.destinations) == 0 {
		return nil, &ProtocolError{Message: "request has no destinations"}
	}

	replyQueue := "msgbus.reply." + uuid.NewString()

	wireReq := &wire.Request{
		Version:      1,
		Reference:    uuid.NewString(),
		Command:      req.command,
		Expiration:   uint(req.expiration.Seconds()),
		Data:         wire.EncodeBody(req.body),
		Tags:         req.tags,
		Destinations: req.destinations,
		ReplyTo:      replyQueue,
		Schema:       req.schema,
		Timestamp:    uint64(time.Now().Unix()),
		Source:       c.source,
	}

	data, err := wire.EncodeRequest(wireReq)
	if err != nil {
		return nil, err
	}

	conn := c.pool.Acquire()
	err = conn.Rpush(systemLocalQueue, data)
	conn.Release()
	if err != nil {
		return nil, err
	}

	return &Call{
		replyQueue: replyQueue,
		pool:       c.pool,
		deadline:   time.Now().Add(req.expiration),
		remaining:  len(req.destinations),
	}, nil
}

// Close releases the broker connection pool.
func (c *Client) Close() error {
	return c.pool.Close()
}
