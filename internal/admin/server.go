package admin

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/gateway"
	"github.com/adhryush/voice-gateway/internal/observability"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func listActiveSessionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ListActiveSessionsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).ListActiveSessions(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/admin.AdminService/ListActiveSessions"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Service).ListActiveSessions(ctx, req.(*ListActiveSessionsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func forceDisconnectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ForceDisconnectRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).ForceDisconnect(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/admin.AdminService/ForceDisconnect"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Service).ForceDisconnect(ctx, req.(*ForceDisconnectRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// adminServer is the method set RegisterService checks Service against; it
// exists only for that runtime assertion, not for dispatch (the handler
// functions below do their own type assertions).
type adminServer interface {
	ListActiveSessions(context.Context, *ListActiveSessionsRequest) (*ListActiveSessionsResponse, error)
	ForceDisconnect(context.Context, *ForceDisconnectRequest) (*ForceDisconnectResponse, error)
}

// serviceDesc is hand-written in place of a protoc-generated one: AdminService
// has two methods, so generating and vendoring a stub package for it would
// add more machinery than it saves. See jsonCodec for the matching wire format.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "admin.AdminService",
	HandlerType: (*adminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListActiveSessions", Handler: listActiveSessionsHandler},
		{MethodName: "ForceDisconnect", Handler: forceDisconnectHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "admin.proto",
}

// Server wraps the grpc.Server hosting AdminService.
type Server struct {
	grpcServer *grpc.Server
	port       int
}

// NewServer constructs the admin gRPC server bound to the given Registry.
// Returns nil if cfg.AdminGRPCPort is 0, per §4.10 ("admin_grpc_port=0
// disables the admin RPC surface").
func NewServer(cfg *config.Config, registry *gateway.Registry) *Server {
	if cfg.AdminGRPCPort == 0 {
		return nil
	}

	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&serviceDesc, NewService(registry))

	return &Server{grpcServer: grpcServer, port: cfg.AdminGRPCPort}
}

// Serve starts listening; it blocks until the listener fails or Stop is
// called from another goroutine. Callers run it in its own goroutine.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("admin rpc listen: %w", err)
	}
	observability.GetLogger().Info().Int("port", s.port).Msg("admin rpc surface listening")
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the admin gRPC server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
