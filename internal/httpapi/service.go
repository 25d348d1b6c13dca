package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"llamachat/internal/chat"
	"llamachat/internal/coordinator"
	"llamachat/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() ([]types.Model, error)
	Status() types.StatusResponse
	Ready() bool
	LoadModel(ctx context.Context, name string) error
	UnloadModel(ctx context.Context) error
	Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error)
	Messages() types.MessagesResponse
	Chat(ctx context.Context, text string) (types.ChatResponse, error)
}

// ModelLister lists the models available for loading.
type ModelLister interface {
	List() ([]types.Model, error)
}

// CoordinatorService implements Service on top of a coordinator, a model
// store and a chat session that shares the coordinator.
type CoordinatorService struct {
	coord   *coordinator.Coordinator
	models  ModelLister
	session *chat.Session
	started time.Time
	now     func() time.Time
}

// NewService wires the HTTP layer to c. models and session may be nil, in
// which case /models returns an empty list and the chat endpoints fail.
func NewService(c *coordinator.Coordinator, models ModelLister, session *chat.Session) *CoordinatorService {
	return &CoordinatorService{coord: c, models: models, session: session, started: time.Now(), now: time.Now}
}

var errNoSession = errors.New("chat session not configured")

func (s *CoordinatorService) ListModels() ([]types.Model, error) {
	if s.models == nil {
		return []types.Model{}, nil
	}
	return s.models.List()
}

func (s *CoordinatorService) Status() types.StatusResponse {
	resp := StatusFromSnapshot(s.coord.Snapshot())
	now := s.now()
	resp.UptimeSeconds = int64(now.Sub(s.started).Seconds())
	resp.ServerTimeUnix = now.Unix()
	return resp
}

func (s *CoordinatorService) Ready() bool { return s.coord.IsReady() }

func (s *CoordinatorService) LoadModel(ctx context.Context, name string) error {
	return s.coord.LoadModel(ctx, strings.TrimSpace(name))
}

func (s *CoordinatorService) UnloadModel(ctx context.Context) error {
	return s.coord.UnloadModel(ctx)
}

func (s *CoordinatorService) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	start := time.Now()
	text, err := s.coord.GenerateText(ctx, req.Prompt, coordinator.GenerateOptions{MaxTokens: req.MaxTokens})
	if err != nil {
		return types.GenerateResponse{}, err
	}
	return types.GenerateResponse{
		Text:       text,
		Model:      s.coord.Model(),
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}

func (s *CoordinatorService) Messages() types.MessagesResponse {
	if s.session == nil {
		return types.MessagesResponse{Messages: []types.Message{}}
	}
	return types.MessagesResponse{Messages: s.session.Messages(), Status: s.session.StatusText()}
}

func (s *CoordinatorService) Chat(ctx context.Context, text string) (types.ChatResponse, error) {
	if s.session == nil {
		return types.ChatResponse{}, errNoSession
	}
	reply, err := s.session.Send(ctx, text)
	if err != nil {
		return types.ChatResponse{}, err
	}
	resp := types.ChatResponse{Messages: s.session.Messages()}
	if reply != "" && len(resp.Messages) > 0 {
		resp.Reply = resp.Messages[len(resp.Messages)-1]
	}
	return resp, nil
}

// StatusFromSnapshot converts a coordinator snapshot into the /status payload.
func StatusFromSnapshot(snap coordinator.Snapshot) types.StatusResponse {
	resp := types.StatusResponse{
		State:      string(snap.State),
		Model:      snap.Model,
		Ready:      snap.Ready,
		Loading:    snap.Loading,
		Generating: snap.Generating,
		Unloading:  snap.Unloading,
		Load:       outcomeStatus(snap.Load),
		Unload:     outcomeStatus(snap.Unload),
		Generate:   outcomeStatus(snap.Generate),
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp
}

func outcomeStatus(o coordinator.Outcome) types.OutcomeStatus {
	out := types.OutcomeStatus{Status: string(o.Status)}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	if !o.SettledAt.IsZero() {
		out.SettledAt = o.SettledAt.Unix()
	}
	return out
}
