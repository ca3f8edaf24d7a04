package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chatline.API"

// APIService is implemented by the daemon and, over the wire, by Client.
type APIService interface {
	GetVersion(ctx context.Context) (string, error)
	Shutdown(ctx context.Context) error

	OpenSession(ctx context.Context) (string, error)
	CloseSession(ctx context.Context, session string) error

	Dispatch(ctx context.Context, session, line string) (DispatchResult, error)
	Suggest(ctx context.Context, session, line string, cursor int) (Completion, error)

	Observe(ctx context.Context, line string) (Observation, error)
	Login(ctx context.Context, username string) error
	Detect(ctx context.Context, text string) ([]Detection, error)
}

// Server adapts an APIService to gRPC.
type Server struct {
	apiService APIService
}

func NewAPIServer(apiService APIService) *Server {
	return &Server{
		apiService: apiService,
	}
}

func (s *Server) service() APIService {
	return s.apiService
}

type apiServer interface {
	service() APIService
}

// RegisterAPIServer registers srv with s.
func RegisterAPIServer(s grpc.ServiceRegistrar, srv *Server) {
	s.RegisterService(&serviceDesc, srv)
}

type method func(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary(name string, m method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			svc := srv.(apiServer).service()
			if interceptor == nil {
				return m(svc, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return m(svc, ctx, req.(*structpb.Struct))
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*apiServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetVersion", getVersion),
		unary("Shutdown", shutdown),
		unary("OpenSession", openSession),
		unary("CloseSession", closeSession),
		unary("Dispatch", dispatch),
		unary("Suggest", suggest),
		unary("Observe", observe),
		unary("Login", login),
		unary("Detect", detect),
	},
	Streams: []grpc.StreamDesc{},
}

func empty() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}
}

func getVersion(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	version, err := svc.GetVersion(ctx)
	if err != nil {
		return nil, err
	}

	return fields{"version": str(version)}.toStruct(), nil
}

func shutdown(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := svc.Shutdown(ctx); err != nil {
		return nil, err
	}

	return empty(), nil
}

func openSession(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := svc.OpenSession(ctx)
	if err != nil {
		return nil, err
	}

	return fields{"session": str(id)}.toStruct(), nil
}

func closeSession(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := svc.CloseSession(ctx, getString(req, "session")); err != nil {
		return nil, err
	}

	return empty(), nil
}

func dispatch(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := svc.Dispatch(ctx, getString(req, "session"), getString(req, "line"))
	if err != nil {
		return nil, err
	}

	return res.toStruct(), nil
}

func suggest(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	comp, err := svc.Suggest(ctx, getString(req, "session"), getString(req, "line"), getInt(req, "cursor"))
	if err != nil {
		return nil, err
	}

	return comp.toStruct(), nil
}

func observe(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	obs, err := svc.Observe(ctx, getString(req, "line"))
	if err != nil {
		return nil, err
	}

	return obs.toStruct(), nil
}

func login(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := svc.Login(ctx, getString(req, "username")); err != nil {
		return nil, err
	}

	return empty(), nil
}

func detect(svc APIService, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	detections, err := svc.Detect(ctx, getString(req, "text"))
	if err != nil {
		return nil, err
	}

	return fields{"detections": list(detectionsToStructs(detections))}.toStruct(), nil
}
