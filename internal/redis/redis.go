// Package redis wraps the go-redis client behind a connect-and-ping
// constructor so callers get a verified connection or an error.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const dialTimeout = 2 * time.Second

type Client struct {
	*goredis.Client
}

// New dials the server and verifies it answers before returning the
// client. Used only when Redis backs the session store.
func New(addr, password string) (*Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Client{Client: client}, nil
}
