package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sort"
	stdsync "sync"

	"github.com/davidbalbert/chatline/chat"
	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/config"
	"github.com/davidbalbert/chatline/rpc"
	"go4.org/netipx"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// session is one connected editor. Output from commands run in the session
// is buffered until the Dispatch call that produced it returns.
type session struct {
	chat    *chat.Session
	limiter *rate.Limiter

	mu     stdsync.Mutex
	output []string
}

// Send is only called from Handle, which Dispatch runs under mu.
func (s *session) Send(line string) {
	s.output = append(s.output, line)
}

type Server struct {
	engine   *chat.Engine
	socket   string
	address  string
	allowed  *netipx.IPSet
	limit    rate.Limit
	burst    int
	shutdown context.CancelFunc
	version  string
	logger   *slog.Logger

	mu       stdsync.Mutex
	sessions map[string]*session
}

func NewServer(engine *chat.Engine, conf *config.Config, shutdown context.CancelFunc, version string, logger *slog.Logger) (*Server, error) {
	allowed, err := conf.AllowedClientSet()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		engine:   engine,
		socket:   conf.Socket,
		address:  conf.Listen,
		allowed:  allowed,
		limit:    rate.Limit(conf.RateLimit.PerSecond),
		burst:    conf.RateLimit.Burst,
		shutdown: shutdown,
		version:  version,
		logger:   logger,
		sessions: make(map[string]*session),
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	listener, err := Listen(s.socket, s.address, s.allowed, s.logger)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

// Serve serves the API on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(s.logCalls))
	rpc.RegisterAPIServer(grpcServer, rpc.NewAPIServer(s))

	s.logger.Info("api listening", "addr", listener.Addr())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return grpcServer.Serve(listener)
	})

	g.Go(func() error {
		<-ctx.Done()
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

func (s *Server) logCalls(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Debug("rpc failed", "method", info.FullMethod, "err", err)
	} else {
		s.logger.Debug("rpc", "method", info.FullMethod)
	}

	return resp, err
}

func (s *Server) GetVersion(ctx context.Context) (string, error) {
	return s.version, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown()
	return nil
}

func (s *Server) OpenSession(ctx context.Context) (string, error) {
	sess := &session{limiter: rate.NewLimiter(s.limit, s.burst)}
	sess.chat = s.engine.NewSession(sess)

	s.mu.Lock()
	s.sessions[sess.chat.ID] = sess
	s.mu.Unlock()

	return sess.chat.ID, nil
}

func (s *Server) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return status.Errorf(codes.NotFound, "no such session: %s", id)
	}

	sess.chat.Cancel()

	return nil
}

// Sessions returns the ids of open sessions, sorted.
func (s *Server) Sessions() []string {
	s.mu.Lock()
	ids := maps.Keys(s.sessions)
	s.mu.Unlock()

	sort.Strings(ids)

	return ids
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no such session: %s", id)
	}

	return sess, nil
}

func (s *Server) Dispatch(ctx context.Context, id, line string) (rpc.DispatchResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return rpc.DispatchResult{}, err
	}

	if !sess.limiter.Allow() {
		return rpc.DispatchResult{}, status.Error(codes.ResourceExhausted, "too many commands, slow down")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := sess.chat.Handle(line)
	output := sess.output
	sess.output = nil

	return rpc.DispatchResult{
		IsCommand: out.IsCommand,
		Executed:  out.Executed,
		Success:   out.Success,
		Code:      out.Code,
		Error:     out.Error,
		Output:    output,
	}, nil
}

func (s *Server) Suggest(ctx context.Context, id, line string, cursor int) (rpc.Completion, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return rpc.Completion{}, err
	}

	comp, err := sess.chat.Suggest(ctx, line, cursor).Wait(ctx)
	switch {
	case errors.Is(err, chat.ErrSuperseded), errors.Is(err, context.Canceled):
		return rpc.Completion{}, status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return rpc.Completion{}, status.Error(codes.DeadlineExceeded, err.Error())
	case err != nil:
		return rpc.Completion{}, err
	}

	return completionToRPC(comp), nil
}

func completionToRPC(comp commands.Completion) rpc.Completion {
	c := rpc.Completion{
		Start:       comp.Suggestions.Range.Start,
		End:         comp.Suggestions.Range.End,
		Usage:       comp.Usage,
		ErrorCursor: -1,
	}

	for _, sugg := range comp.Suggestions.List {
		c.Suggestions = append(c.Suggestions, rpc.Suggestion{
			Text:    sugg.Text,
			Tooltip: sugg.Tooltip,
			Start:   sugg.Range.Start,
			End:     sugg.Range.End,
		})
	}

	if comp.Err != nil {
		c.Error = comp.Err.Message
		c.ErrorCursor = comp.Err.Cursor
	}

	return c
}

func detectionsToRPC(detections []chat.Detection) []rpc.Detection {
	var out []rpc.Detection
	for _, d := range detections {
		out = append(out, rpc.Detection{
			Name:   d.Item.Name,
			Handle: d.Item.Handle,
			Text:   d.Text,
			Start:  d.Start,
			End:    d.End,
		})
	}

	return out
}

func (s *Server) Observe(ctx context.Context, line string) (rpc.Observation, error) {
	obs, ok := s.engine.Observe(line)
	if !ok {
		return rpc.Observation{}, nil
	}

	return rpc.Observation{
		IsMessage:  true,
		Name:       obs.Message.Name,
		Tag:        obs.Message.Tag,
		Message:    obs.Message.Message,
		Ignored:    obs.Ignored,
		Detections: detectionsToRPC(obs.Detections),
	}, nil
}

func (s *Server) Login(ctx context.Context, username string) error {
	if username == "" {
		return status.Error(codes.InvalidArgument, "username is required")
	}

	s.engine.Login(username)

	return nil
}

func (s *Server) Detect(ctx context.Context, text string) ([]rpc.Detection, error) {
	return detectionsToRPC(s.engine.Detect(text)), nil
}
