// Package queue adapts a Redis-style list broker connection pool to the two
// operations the rest of this module actually needs: RPUSH and BRPOP. It is
// deliberately thin — no pub/sub, no transactions, no scripting — because
// the router, runner, and server never touch the broker any other way.
//
// Called by: internal/runner (push replies), public/server (blocking pop of
// work), public/client (push requests, pop replies)
// Calls: github.com/gomodule/redigo/redis
package queue

import (
	"net/url"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// ErrConnect is returned (wrapped) when the pool cannot reach the broker.
var ErrConnect = errors.New("queue: failed to connect to broker")

// Pool wraps a redis.Pool scoped to a single broker address.
type Pool struct {
	inner *redis.Pool
}

// Connect builds a Pool against a tcp:// or unix:// broker address, e.g.
// "tcp://localhost:6379" or "unix:///var/run/redis.sock".
func Connect(address string) (*Pool, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, errors.Wrapf(ErrConnect, "parse address %q: %v", address, err)
	}

	var network, target string
	switch u.Scheme {
	case "tcp":
		network = "tcp"
		target = u.Host
	case "unix":
		network = "unix"
		target = u.Path
	default:
		return nil, errors.Wrapf(ErrConnect, "unsupported scheme %q (want tcp or unix)", u.Scheme)
	}

	inner := &redis.Pool{
		MaxActive:   5,
		MaxIdle:     3,
		IdleTimeout: time.Minute,
		Wait:        true,
		Dial: func() (redis.Conn, error) {
			return redis.Dial(network, target)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	// Fail fast if the broker isn't actually reachable rather than
	// deferring the first error to whichever caller borrows first.
	conn := inner.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		inner.Close()
		return nil, errors.Wrap(ErrConnect, err.Error())
	}

	return &Pool{inner: inner}, nil
}

// Close releases all pooled connections.
func (p *Pool) Close() error {
	return p.inner.Close()
}

// Conn is a single borrowed connection. Callers must call Release when done.
type Conn struct {
	inner redis.Conn
}

// Acquire borrows a connection from the pool.
func (p *Pool) Acquire() *Conn {
	return &Conn{inner: p.inner.Get()}
}

// Release returns the connection to the pool.
func (c *Conn) Release() error {
	return c.inner.Close()
}

// Rpush appends value to the tail of the list at key.
func (c *Conn) Rpush(key string, value []byte) error {
	_, err := c.inner.Do("RPUSH", key, value)
	if err != nil {
		return errors.Wrapf(err, "queue: RPUSH %s", key)
	}
	return nil
}

// Brpop blocks up to timeout popping from the tail of the first non-empty
// list among keys (Redis BRPOP). The timeout is truncated to whole seconds,
// with a minimum of one second. ok is false on timeout (not an error). keys
// must be non-empty.
func (c *Conn) Brpop(keys []string, timeout time.Duration) (key string, value []byte, ok bool, err error) {
	args := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, k)
	}
	seconds := int(timeout.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	args = append(args, seconds)

	reply, err := redis.Values(c.inner.Do("BRPOP", args...))
	if err != nil {
		if err == redis.ErrNil {
			return "", nil, false, nil
		}
		return "", nil, false, errors.Wrap(err, "queue: BRPOP")
	}
	if len(reply) != 2 {
		return "", nil, false, errors.Errorf("queue: BRPOP: unexpected reply shape %v", reply)
	}

	k, err := redis.String(reply[0], nil)
	if err != nil {
		return "", nil, false, errors.Wrap(err, "queue: BRPOP: decode key")
	}
	v, err := redis.Bytes(reply[1], nil)
	if err != nil {
		return "", nil, false, errors.Wrap(err, "queue: BRPOP: decode value")
	}
	return k, v, true, nil
}
