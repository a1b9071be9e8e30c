package server

import (
	"context"

	"github.com/23skdu/adfiller/internal/metrics"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "filler.Filler"
	// FillMethod is the full method name of Fill.
	FillMethod = "/" + ServiceName + "/Fill"
)

// FillRequest asks for ads eligible under every listed category.
type FillRequest struct {
	Categories []uint32 `json:"categories,omitempty"`
}

// Ad is one eligible ad.
type Ad struct {
	ID string `json:"id"`
}

// FillResponse lists eligible ads in index order.
type FillResponse struct {
	Ads []Ad `json:"ads"`
}

// FillerServer is the server API for the Filler service.
type FillerServer interface {
	Fill(context.Context, *FillRequest) (*FillResponse, error)
}

// Filler is the query engine behind the service.
type Filler interface {
	Fill(categories []uint32) []string
}

// Service adapts the query engine to the Filler gRPC API.
type Service struct {
	engine Filler
	logger zerolog.Logger
}

// NewService returns a FillerServer backed by engine.
func NewService(engine Filler, logger zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		logger: logger.With().Str("component", "filler").Logger(),
	}
}

// Fill implements FillerServer. It never fails on inventory problems; an
// unmatched request is an empty response.
func (s *Service) Fill(ctx context.Context, req *FillRequest) (*FillResponse, error) {
	ids := s.engine.Fill(req.Categories)

	resp := &FillResponse{Ads: make([]Ad, len(ids))}
	for i, id := range ids {
		resp.Ads[i] = Ad{ID: id}
	}

	metrics.FillResultSize.Observe(float64(len(ids)))
	s.logger.Debug().
		Interface("categories", req.Categories).
		Int("ads", len(ids)).
		Msg("fill")
	return resp, nil
}

// RegisterFillerServer registers srv with s.
func RegisterFillerServer(s grpc.ServiceRegistrar, srv FillerServer) {
	s.RegisterService(&FillerServiceDesc, srv)
}

// FillerServiceDesc describes the Filler service for grpc.Server.
var FillerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FillerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Fill",
			Handler:    fillHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

func fillHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FillRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FillerServer).Fill(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FillMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FillerServer).Fill(ctx, req.(*FillRequest))
	}
	return interceptor(ctx, in, info, handler)
}
