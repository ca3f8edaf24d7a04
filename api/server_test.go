package api

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"testing"

	"github.com/davidbalbert/chatline/catalog"
	"github.com/davidbalbert/chatline/chat"
	"github.com/davidbalbert/chatline/config"
	"github.com/davidbalbert/chatline/rpc"
	"github.com/stretchr/testify/require"
	"go4.org/netipx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	server   *Server
	client   *rpc.Client
	shutdown chan struct{}
}

func newHarness(t *testing.T, conf *config.Config) *harness {
	t.Helper()

	store := catalog.NewStore(catalog.NewIndex([]catalog.Item{
		{Name: "Iron Sword", Handle: "iron_sword"},
		{Name: "Stone", Handle: "stone"},
	}))

	engine, err := chat.NewEngine(chat.OptionsFromConfig(conf, store, quietLogger()))
	require.NoError(t, err)

	h := &harness{shutdown: make(chan struct{})}
	h.server, err = NewServer(engine, conf, func() { close(h.shutdown) }, "test", quietLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- h.server.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}
	conn, err := grpc.Dial("bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	h.client = rpc.NewAPIClient(conn)

	return h
}

func TestDispatchCollectsOutput(t *testing.T) {
	h := newHarness(t, config.Default())
	ctx := context.Background()

	id, err := h.client.OpenSession(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{id}, h.server.Sessions())

	obs, err := h.client.Observe(ctx, "[00:00:00] Alice: selling stone")
	require.NoError(t, err)
	require.True(t, obs.IsMessage)
	require.Equal(t, "Alice", obs.Name)
	require.Len(t, obs.Detections, 1)
	require.Equal(t, "stone", obs.Detections[0].Handle)

	res, err := h.client.Dispatch(ctx, id, "/whisper alice how much?")
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	require.Equal(t, []string{"-> Alice: how much?"}, res.Output)

	res, err = h.client.Dispatch(ctx, id, "just chatting")
	require.NoError(t, err)
	require.False(t, res.IsCommand)
	require.Empty(t, res.Output)

	res, err = h.client.Dispatch(ctx, id, "/whisper nobody hi")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "unknown player")

	require.NoError(t, h.client.CloseSession(ctx, id))
	require.Empty(t, h.server.Sessions())
}

func TestSuggestOverRPC(t *testing.T) {
	h := newHarness(t, config.Default())
	ctx := context.Background()

	id, err := h.client.OpenSession(ctx)
	require.NoError(t, err)

	comp, err := h.client.Suggest(ctx, id, "/price iron s", 13)
	require.NoError(t, err)
	require.Len(t, comp.Suggestions, 1)
	require.Equal(t, "Iron Sword", comp.Suggestions[0].Text)
	require.Equal(t, 7, comp.Start)
	require.Equal(t, 13, comp.End)
	require.Equal(t, -1, comp.ErrorCursor)

	comp, err = h.client.Suggest(ctx, id, "/zzz", 4)
	require.NoError(t, err)
	require.Empty(t, comp.Suggestions)
	require.NotEmpty(t, comp.Error)
	require.Equal(t, 1, comp.ErrorCursor)
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t, config.Default())
	ctx := context.Background()

	_, err := h.client.Dispatch(ctx, "nope", "/help")
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.Suggest(ctx, "nope", "/help", 5)
	require.Equal(t, codes.NotFound, status.Code(err))

	err = h.client.CloseSession(ctx, "nope")
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestDispatchRateLimit(t *testing.T) {
	conf := config.Default()
	conf.RateLimit.PerSecond = 0.001
	conf.RateLimit.Burst = 2

	h := newHarness(t, conf)
	ctx := context.Background()

	id, err := h.client.OpenSession(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := h.client.Dispatch(ctx, id, "/ignore list")
		require.NoError(t, err)
	}

	_, err = h.client.Dispatch(ctx, id, "/ignore list")
	require.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestLoginAndShutdown(t *testing.T) {
	h := newHarness(t, config.Default())
	ctx := context.Background()

	err := h.client.Login(ctx, "")
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	require.NoError(t, h.client.Login(ctx, "Steve"))

	version, err := h.client.GetVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, "test", version)

	require.NoError(t, h.client.Shutdown(ctx))
	<-h.shutdown
}

func TestAllowListenerRejectsUnlistedClients(t *testing.T) {
	var b netipx.IPSetBuilder
	b.AddPrefix(netip.MustParsePrefix("192.0.2.0/24"))
	allowed, err := b.IPSet()
	require.NoError(t, err)

	l, err := Listen("", "127.0.0.1:0", allowed, quietLogger())
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// The server side closes rejected connections, so reads see EOF.
	_, err = conn.Read(make([]byte, 1))
	require.Error(t, err)

	select {
	case c := <-accepted:
		c.Close()
		t.Fatal("connection from loopback should have been rejected")
	default:
	}
}

func TestAllowListenerAcceptsLoopback(t *testing.T) {
	allowed, err := config.Default().AllowedClientSet()
	require.NoError(t, err)

	l, err := Listen("", "127.0.0.1:0", allowed, quietLogger())
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	c := <-accepted
	c.Close()
}
