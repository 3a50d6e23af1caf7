package admin

import (
	"context"

	"github.com/adhryush/voice-gateway/internal/gateway"
)

// Service implements AdminService (§4.10): a narrow session-introspection
// surface over the Media Gateway's Registry. It holds no state of its own
// and drives no teardown path that the Call Session doesn't already expose.
type Service struct {
	registry *gateway.Registry
}

// NewService binds the admin surface to a live Registry.
func NewService(registry *gateway.Registry) *Service {
	return &Service{registry: registry}
}

// ListActiveSessions lists every session the Media Gateway currently holds.
func (s *Service) ListActiveSessions(ctx context.Context, _ *ListActiveSessionsRequest) (*ListActiveSessionsResponse, error) {
	sessions := s.registry.List()
	resp := &ListActiveSessionsResponse{Sessions: make([]SessionInfo, 0, len(sessions))}
	for _, info := range sessions {
		resp.Sessions = append(resp.Sessions, SessionInfo{
			ConnectionID:    info.ConnectionID,
			CallID:          info.CallID,
			CurrentLanguage: info.CurrentLanguage,
			Status:          string(info.Status),
			StartedAt:       info.StartedAt,
		})
	}
	return resp, nil
}

// ForceDisconnect drives the same Ending transition the silence watchdog
// uses, via Registry.ForceDisconnect — no separate teardown path exists.
func (s *Service) ForceDisconnect(ctx context.Context, req *ForceDisconnectRequest) (*ForceDisconnectResponse, error) {
	ok := s.registry.ForceDisconnect(req.ConnectionID)
	return &ForceDisconnectResponse{Ok: ok}, nil
}
