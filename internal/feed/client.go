package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/componentry/internal/config"
	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultConnectTimeout bounds how long Dial waits for the connection.
const DefaultConnectTimeout = 15 * time.Second

// Client receives mutation batches from a socket.io server.
type Client struct {
	io      *socket.Socket
	logger  *slog.Logger
	batches chan Batch
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the feed described by cfg and subscribes to its event.
// It blocks until the connection succeeds, fails, or ctx is done.
func Dial(ctx context.Context, cfg config.FeedConfig) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("feed", cfg.URL, "namespace", cfg.Namespace, "event", cfg.Event)
	logger.Info("Connecting to mutation feed...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(cfg.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	c := &Client{
		io:      io,
		logger:  logger,
		batches: make(chan Batch, 16),
		done:    make(chan struct{}),
	}
	io.On(types.EventName(cfg.Event), c.receive)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to mutation feed.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Feed connect_error event fired.", "error", err)
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(DefaultConnectTimeout):
		c.Close()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DefaultConnectTimeout)
	}
}

// Batches returns the channel of decoded batches. It is never closed; select
// on Done as well.
func (c *Client) Batches() <-chan Batch { return c.batches }

// Done is closed by Close.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close disconnects from the server. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.io.Disconnect()
		c.logger.Debug("Mutation feed closed.")
	})
}

func (c *Client) receive(data ...any) {
	if len(data) == 0 {
		c.logger.Warn("Feed event without payload ignored.")
		return
	}
	batch, err := Decode(data[0])
	if err != nil {
		c.logger.Warn("Invalid feed batch ignored.", "error", err)
		return
	}
	c.deliver(batch)
}

func (c *Client) deliver(batch Batch) {
	select {
	case c.batches <- batch:
		c.logger.Debug("Feed batch queued.", "ops", len(batch.Ops))
	case <-c.done:
	}
}
