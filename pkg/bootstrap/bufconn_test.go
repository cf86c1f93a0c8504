package bootstrap

import (
	"context"
	"net"
	"testing"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func TestBufconnClientReadsPrimary(t *testing.T) {
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	primary := launcher.New(launcher.ModeFull)
	primary.Dispatch(launcher.SetIsFirstLaunch(false))
	primary.Dispatch(launcher.SetLogLevel("debug"))
	RegisterBootstrapServer(server, NewService(primary))
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	secondary, err := NewSecondaryStore(ctx, NewClient(conn))
	if err != nil {
		t.Fatalf("secondary store: %v", err)
	}
	root := secondary.GetState()
	if root.System.IsFirstLaunch {
		t.Fatalf("expected isFirstLaunch false from primary")
	}
	if root.Developer.LogLevel != "debug" {
		t.Fatalf("expected developer slice from primary, got %+v", root.Developer)
	}
	if root.Settings != nil {
		t.Fatalf("partial store must not hold settings")
	}
}
