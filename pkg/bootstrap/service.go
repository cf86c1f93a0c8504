// Package bootstrap lets a secondary process seed its store from the primary
// process over gRPC. The primary serves GetAppState; the secondary calls it
// once at startup and again only on an explicit resync.
package bootstrap

import (
	"context"

	launcher "github.com/goliatone/go-launcher"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName       = "launcher.Bootstrap"
	getAppStateMethod = "/launcher.Bootstrap/GetAppState"
)

// GetAppStateRequest names the mode the caller composes. The response only
// carries the slices of that mode.
type GetAppStateRequest struct {
	Mode launcher.Mode `json:"mode"`
}

// GetAppStateResponse is a snapshot of the primary's root state.
type GetAppStateResponse struct {
	SnapshotID string               `json:"snapshotId"`
	Mode       launcher.Mode        `json:"mode"`
	Slices     []launcher.SliceName `json:"slices"`
	State      launcher.RootState   `json:"state"`
}

// BootstrapServer is implemented by the primary process.
type BootstrapServer interface {
	GetAppState(context.Context, *GetAppStateRequest) (*GetAppStateResponse, error)
}

// StateSource is the part of *launcher.Store the service reads.
type StateSource interface {
	GetState() launcher.RootState
}

// Service answers GetAppState from a store.
type Service struct {
	source StateSource
}

func NewService(source StateSource) *Service {
	return &Service{source: source}
}

// GetAppState returns the current state restricted to the requested mode.
func (s *Service) GetAppState(_ context.Context, req *GetAppStateRequest) (*GetAppStateResponse, error) {
	if s == nil || s.source == nil {
		return nil, status.Error(codes.Unavailable, "bootstrap: no state source")
	}
	mode := launcher.ModePartial
	if req != nil && req.Mode == launcher.ModeFull {
		mode = launcher.ModeFull
	}
	snapshot := restrict(s.source.GetState(), mode)
	return &GetAppStateResponse{
		SnapshotID: uuid.NewString(),
		Mode:       mode,
		Slices:     mode.Slices(),
		State:      snapshot,
	}, nil
}

func restrict(state launcher.RootState, mode launcher.Mode) launcher.RootState {
	var out launcher.RootState
	for _, name := range mode.Slices() {
		switch name {
		case launcher.SliceSystem:
			out.System = state.System
		case launcher.SliceConfig:
			out.Config = state.Config
		case launcher.SliceSettings:
			out.Settings = state.Settings
		case launcher.SliceUserSettings:
			out.UserSettings = state.UserSettings
		case launcher.SliceGameSettings:
			out.GameSettings = state.GameSettings
		case launcher.SliceMain:
			out.Main = state.Main
		case launcher.SliceDeveloper:
			out.Developer = state.Developer
		}
	}
	return out
}

// RegisterBootstrapServer registers srv on registrar.
func RegisterBootstrapServer(registrar grpc.ServiceRegistrar, srv BootstrapServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

func getAppStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAppStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BootstrapServer).GetAppState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getAppStateMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BootstrapServer).GetAppState(ctx, req.(*GetAppStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BootstrapServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetAppState",
			Handler:    getAppStateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "launcher/bootstrap",
}
