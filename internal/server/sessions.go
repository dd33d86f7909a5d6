package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cranium/internal/persistence"
	"github.com/jonathan/cranium/internal/sections"
	"github.com/jonathan/cranium/internal/server/middleware"
	"github.com/jonathan/cranium/internal/types"
	"github.com/jonathan/cranium/internal/workspace"
)

// anonymousOwner owns sessions created without a bearer token.
const anonymousOwner = "anonymous"

type session struct {
	id       string
	owner    string
	ws       *workspace.Workspace
	lastUsed time.Time
}

// sessionRegistry holds live workspaces keyed by session id. Sessions idle
// longer than ttl are closed on the next registration.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// add registers ws and returns the workspaces it displaced: expired
// sessions and a previous session of the same owner under the same id.
// An id held by another owner is refused.
func (r *sessionRegistry) add(id, owner string, ws *workspace.Workspace) ([]*workspace.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && s.owner != owner {
		return nil, &ErrValidation{Field: "session_id", Message: "already in use"}
	}

	now := r.now()
	var closed []*workspace.Workspace
	for key, s := range r.sessions {
		if key == id || (r.ttl > 0 && now.Sub(s.lastUsed) > r.ttl) {
			closed = append(closed, s.ws)
			delete(r.sessions, key)
		}
	}
	r.sessions[id] = &session{id: id, owner: owner, ws: ws, lastUsed: now}
	return closed, nil
}

// get returns the workspace for id when owner owns it.
func (r *sessionRegistry) get(id, owner string) (*workspace.Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.owner != owner {
		return nil, false
	}
	s.lastUsed = r.now()
	return s.ws, true
}

func (r *sessionRegistry) remove(id, owner string) (*workspace.Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.owner != owner {
		return nil, false
	}
	delete(r.sessions, id)
	return s.ws, true
}

func (r *sessionRegistry) closeAll() []*workspace.Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*workspace.Workspace, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, s.ws)
		delete(r.sessions, id)
	}
	return out
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// owner returns the caller's identity: the token's user id, or anonymous.
func owner(r *http.Request) string {
	if id, err := middleware.GetUserID(r); err == nil {
		return id.String()
	}
	return anonymousOwner
}

// workspaceFor resolves the session named in the request path.
func (s *Server) workspaceFor(r *http.Request) (*workspace.Workspace, error) {
	id := r.PathValue("id")
	ws, ok := s.sessions.get(id, owner(r))
	if !ok {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	return ws, nil
}

// openSession builds and seeds a workspace for req. When the request names
// an existing session id and a cache is configured, cached state is restored.
func (s *Server) openSession(ctx context.Context, req *createSessionRequest, who string) (string, *workspace.Workspace, error) {
	profile, err := s.profileFor(ctx, req)
	if err != nil {
		return "", nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	role := req.TargetRole
	if role == "" {
		role = s.cfg.TargetRole
	}
	opts := workspace.Options{
		TargetRole:     role,
		Advisor:        s.advisor,
		DebounceWindow: s.cfg.DebounceWindow(),
		MaxAttempts:    s.cfg.MaxAttempts,
		HistoryWindow:  s.cfg.HistoryWindow,
		Logger:         s.logger,
	}
	if s.cache != nil {
		opts.Bridge = persistence.NewBridge(s.cache, who, sessionID, s.cfg.SessionTTL(), s.logger)
	}

	ws := workspace.New(opts)
	if err := ws.Import(profile); err != nil {
		ws.Close()
		return "", nil, &ErrValidation{Field: "profile", Message: err.Error()}
	}
	if req.SessionID != "" && opts.Bridge != nil {
		if err := ws.Restore(ctx); err != nil {
			ws.Close()
			return "", nil, err
		}
	}
	return sessionID, ws, nil
}

// profileFor returns the posted profile or loads the stored one.
func (s *Server) profileFor(ctx context.Context, req *createSessionRequest) (*types.ProfileSnapshot, error) {
	if req.Profile != nil {
		return req.Profile, nil
	}
	if s.db == nil {
		return nil, &ErrUnavailable{Backend: "profile database"}
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, &ErrValidation{Field: "user_id", Message: "must be a UUID"}
	}
	profile, err := s.db.LoadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// sessionState is the full client-visible state of a session.
type sessionState struct {
	SessionID     string                  `json:"session_id"`
	TargetRole    string                  `json:"target_role,omitempty"`
	Containers    map[string][]types.Item `json:"containers"`
	Sections      []types.CustomSection   `json:"sections"`
	History       []types.HistoryEntry    `json:"history"`
	Alerts        []types.Alert           `json:"alerts"`
	Processing    []string                `json:"processing"`
	Chat          []types.ChatMessage     `json:"chat,omitempty"`
	Dragging      string                  `json:"dragging,omitempty"`
	PendingDelete *pendingDeleteView      `json:"pending_delete,omitempty"`
}

// pendingDeleteView flattens a sections.PendingDelete for JSON.
type pendingDeleteView struct {
	SectionID string `json:"section_id"`
	ItemID    string `json:"item_id,omitempty"`
}

func viewPending(p sections.PendingDelete) *pendingDeleteView {
	switch p := p.(type) {
	case sections.PendingItem:
		return &pendingDeleteView{SectionID: p.SectionID, ItemID: p.ItemID}
	case sections.PendingSection:
		return &pendingDeleteView{SectionID: p.SectionID}
	}
	return nil
}

func stateOf(id string, ws *workspace.Workspace) sessionState {
	containers := make(map[string][]types.Item)
	for name, ids := range ws.Snapshot().Containers() {
		items := make([]types.Item, 0, len(ids))
		for _, itemID := range ids {
			if it, ok := ws.Item(itemID); ok {
				items = append(items, it)
			}
		}
		containers[name] = items
	}
	dragging, _ := ws.Dragging()
	return sessionState{
		SessionID:     id,
		TargetRole:    ws.TargetRole(),
		Containers:    containers,
		Sections:      ws.Sections(),
		History:       ws.History(),
		Alerts:        ws.Alerts(),
		Processing:    ws.ProcessingIDs(),
		Chat:          ws.ChatTranscript(),
		Dragging:      dragging,
		PendingDelete: viewPending(ws.PendingDelete()),
	}
}
