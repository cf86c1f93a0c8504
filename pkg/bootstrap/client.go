package bootstrap

import (
	"context"
	"fmt"
	"strings"

	launcher "github.com/goliatone/go-launcher"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Fetcher retrieves a state snapshot from the primary process.
type Fetcher interface {
	Fetch(ctx context.Context, mode launcher.Mode) (*GetAppStateResponse, error)
}

// Client calls the bootstrap service.
type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// Dial creates a client for addr. Connections are local and unencrypted.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("bootstrap: address is required")
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, closer: conn.Close}, nil
}

// NewClient wraps an existing connection. Close does not close conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Fetch calls GetAppState for mode.
func (c *Client) Fetch(ctx context.Context, mode launcher.Mode) (*GetAppStateResponse, error) {
	out := new(GetAppStateResponse)
	err := c.conn.Invoke(ctx, getAppStateMethod, &GetAppStateRequest{Mode: mode}, out, grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: get app state: %w", err)
	}
	return out, nil
}

// Close releases the connection opened by Dial.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}

// NewSecondaryStore builds a partial-mode store seeded from the primary. When
// the primary cannot be reached the store starts from defaults and the fetch
// error is returned alongside it.
func NewSecondaryStore(ctx context.Context, fetcher Fetcher, opts ...launcher.Option) (*launcher.Store, error) {
	if fetcher == nil {
		return launcher.New(launcher.ModePartial, opts...), fmt.Errorf("bootstrap: fetcher is required")
	}
	resp, err := fetcher.Fetch(ctx, launcher.ModePartial)
	if err != nil {
		return launcher.New(launcher.ModePartial, opts...), err
	}
	seeded := append(append([]launcher.Option{}, opts...), launcher.WithSeed(resp.State))
	return launcher.New(launcher.ModePartial, seeded...), nil
}

// Resync replaces the state of store with a fresh snapshot from the primary.
// On failure store is left untouched.
func Resync(ctx context.Context, fetcher Fetcher, store *launcher.Store) (string, error) {
	if fetcher == nil || store == nil {
		return "", fmt.Errorf("bootstrap: fetcher and store are required")
	}
	resp, err := fetcher.Fetch(ctx, store.Mode())
	if err != nil {
		return "", err
	}
	store.Replace(resp.State)
	return resp.SnapshotID, nil
}
