package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeService struct {
	shutdown bool
	login    string
	closed   string
}

func (f *fakeService) GetVersion(ctx context.Context) (string, error) {
	return "1.2.3", nil
}

func (f *fakeService) Shutdown(ctx context.Context) error {
	f.shutdown = true
	return nil
}

func (f *fakeService) OpenSession(ctx context.Context) (string, error) {
	return "session-1", nil
}

func (f *fakeService) CloseSession(ctx context.Context, session string) error {
	f.closed = session
	return nil
}

func (f *fakeService) Dispatch(ctx context.Context, session, line string) (DispatchResult, error) {
	if session != "session-1" {
		return DispatchResult{}, status.Errorf(codes.NotFound, "no such session: %s", session)
	}

	return DispatchResult{
		IsCommand: true,
		Executed:  true,
		Success:   true,
		Code:      2,
		Output:    []string{"you said", line},
	}, nil
}

func (f *fakeService) Suggest(ctx context.Context, session, line string, cursor int) (Completion, error) {
	return Completion{
		Start: 1,
		End:   cursor,
		Suggestions: []Suggestion{
			{Text: "whisper", Tooltip: "send a private message", Start: 1, End: cursor},
		},
		ErrorCursor: -1,
	}, nil
}

func (f *fakeService) Observe(ctx context.Context, line string) (Observation, error) {
	return Observation{
		IsMessage: true,
		Name:      "Bob",
		Message:   line,
		Ignored:   true,
		Detections: []Detection{
			{Name: "Stone", Handle: "stone", Text: "stone", Start: 3, End: 8},
		},
	}, nil
}

func (f *fakeService) Login(ctx context.Context, username string) error {
	f.login = username
	return nil
}

func (f *fakeService) Detect(ctx context.Context, text string) ([]Detection, error) {
	return nil, nil
}

func startServer(t *testing.T, svc APIService) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 16)
	s := grpc.NewServer()
	RegisterAPIServer(s, NewAPIServer(svc))

	go s.Serve(lis)
	t.Cleanup(s.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}

	conn, err := grpc.Dial("bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewAPIClient(conn)
}

func TestRoundTrip(t *testing.T) {
	svc := &fakeService{}
	c := startServer(t, svc)
	ctx := context.Background()

	version, err := c.GetVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, "1.2.3", version)

	session, err := c.OpenSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "session-1", session)

	res, err := c.Dispatch(ctx, session, "/hi")
	require.NoError(t, err)
	want := DispatchResult{IsCommand: true, Executed: true, Success: true, Code: 2, Output: []string{"you said", "/hi"}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("dispatch mismatch (-want +got):\n%s", diff)
	}

	comp, err := c.Suggest(ctx, session, "/wh", 3)
	require.NoError(t, err)
	wantComp := Completion{
		Start:       1,
		End:         3,
		Suggestions: []Suggestion{{Text: "whisper", Tooltip: "send a private message", Start: 1, End: 3}},
		ErrorCursor: -1,
	}
	if diff := cmp.Diff(wantComp, comp); diff != "" {
		t.Fatalf("completion mismatch (-want +got):\n%s", diff)
	}

	obs, err := c.Observe(ctx, "hi stone")
	require.NoError(t, err)
	require.True(t, obs.Ignored)
	require.Equal(t, "Bob", obs.Name)
	require.Equal(t, []Detection{{Name: "Stone", Handle: "stone", Text: "stone", Start: 3, End: 8}}, obs.Detections)

	detections, err := c.Detect(ctx, "nothing")
	require.NoError(t, err)
	require.Empty(t, detections)

	require.NoError(t, c.Login(ctx, "Steve"))
	require.Equal(t, "Steve", svc.login)

	require.NoError(t, c.CloseSession(ctx, session))
	require.Equal(t, "session-1", svc.closed)

	require.NoError(t, c.Shutdown(ctx))
	require.True(t, svc.shutdown)
}

func TestStatusErrorsPassThrough(t *testing.T) {
	c := startServer(t, &fakeService{})

	_, err := c.Dispatch(context.Background(), "nope", "/hi")
	require.Error(t, err)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen []string
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen = append(seen, info.FullMethod)
		return handler(ctx, req)
	}

	lis := bufconn.Listen(1 << 16)
	s := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	RegisterAPIServer(s, NewAPIServer(&fakeService{}))
	go s.Serve(lis)
	defer s.Stop()

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}
	conn, err := grpc.Dial("bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewAPIClient(conn).GetVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"/chatline.API/GetVersion"}, seen)
}
