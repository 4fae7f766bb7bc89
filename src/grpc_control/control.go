// Package grpc_control exposes the collector's control plane over gRPC. Messages
// are google.protobuf.Struct values so that no generated code is needed.
package grpc_control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"market-collector/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "collector.v1.CollectorControl"

// ControlServer is the server API of the control service.
type ControlServer interface {
	RefreshCollection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCollections(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProviders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddSource(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSource(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------

func unary(method string, call func(ControlServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ControlServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the control service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RefreshCollection", ControlServer.RefreshCollection),
		unary("ListCollections", ControlServer.ListCollections),
		unary("GetTask", ControlServer.GetTask),
		unary("ListProviders", ControlServer.ListProviders),
		unary("AddSource", ControlServer.AddSource),
		unary("RemoveSource", ControlServer.RemoveSource),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "collector/v1/control.proto",
}

func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// ControlClient calls the control service by method name.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

// Call invokes method with fields as the request Struct.
func (c *ControlClient) Call(ctx context.Context, method string, fields map[string]any) (map[string]any, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// -----------------------------------------------------------------------------
// Server lifecycle
// -----------------------------------------------------------------------------

type Server struct {
	Addr   string
	Logger *logger.Logger
	grpc   *grpc.Server
}

// NewServer registers srv on a fresh grpc.Server with request logging.
func NewServer(addr string, srv ControlServer, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewLogger(nil, "gRPC")
	}
	s := &Server{Addr: addr, Logger: log}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logCalls))
	RegisterControlServer(s.grpc, srv)
	return s
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.Logger.Warning("%s failed after %v: %v", info.FullMethod, time.Since(start), err)
	} else {
		s.Logger.Debug("%s served in %v", info.FullMethod, time.Since(start))
	}
	return resp, err
}

// Serve blocks on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.Logger.Info("gRPC control listening on %s", lis.Addr())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	return s.Serve(lis)
}

func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
