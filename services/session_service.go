package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"coverage-route-server/editor"
	"coverage-route-server/graph"
	"coverage-route-server/models"
	"coverage-route-server/preprocessing"
	"coverage-route-server/routing"
	"coverage-route-server/storage"
	"coverage-route-server/utils"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrNoStreetIndex   = errors.New("no street index loaded")
)

// SessionOptions are the defaults applied to every new session
type SessionOptions struct {
	Policy         graph.TogglePolicy
	DefaultHighway string
	TurnBackWeight float64
	AutoSave       bool // save the graph under its name after every command
}

// session owns one graph and its history. All access goes through mu.
type session struct {
	id        string
	graphName string
	createdAt time.Time

	mu     sync.Mutex
	editor *editor.Editor
}

// SessionService keeps the editing sessions of the server
type SessionService struct {
	store   storage.Store
	streets *preprocessing.StreetIndex
	opts    SessionOptions

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates the service. streets may be nil when no
// completed-street index is configured.
func NewSessionService(store storage.Store, streets *preprocessing.StreetIndex, opts SessionOptions) *SessionService {
	if opts.TurnBackWeight == 0 {
		opts.TurnBackWeight = routing.DefaultTurnBackWeight
	}
	return &SessionService{
		store:    store,
		streets:  streets,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// ListGraphs returns the graphs available to open
func (s *SessionService) ListGraphs(ctx context.Context) ([]storage.GraphInfo, error) {
	return s.store.ListGraphs(ctx)
}

// Open starts a session on a stored graph
func (s *SessionService) Open(ctx context.Context, req models.OpenSessionRequest) (models.SessionResponse, error) {
	policy := s.opts.Policy
	if req.Policy != "" {
		p, err := utils.ParseTogglePolicy(req.Policy)
		if err != nil {
			return models.SessionResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		policy = p
	}

	g, err := s.store.LoadGraph(ctx, req.Graph)
	if err != nil {
		return models.SessionResponse{}, err
	}

	var keep *graph.NodeID
	if req.KeepNode != nil {
		id := graph.NodeID(*req.KeepNode)
		keep = &id
	}
	sess := s.add(req.Graph, g, policy, keep)
	log.Printf("Opened session %s on graph %q (%s)", sess.id, req.Graph, policy)
	return s.describe(sess), nil
}

// Import starts a session on a graph that is not in the store yet
func (s *SessionService) Import(name string, g *graph.Graph) models.SessionResponse {
	sess := s.add(name, g, s.opts.Policy, nil)
	log.Printf("Imported graph %q into session %s", name, sess.id)
	return s.describe(sess)
}

func (s *SessionService) add(name string, g *graph.Graph, policy graph.TogglePolicy, keep *graph.NodeID) *session {
	sess := &session{
		id:        uuid.New().String(),
		graphName: name,
		createdAt: time.Now().UTC(),
		editor: editor.New(g, editor.Options{
			Policy:         policy,
			KeepNode:       keep,
			DefaultHighway: s.opts.DefaultHighway,
			Saver:          s.store,
		}),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

func (s *SessionService) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Close drops a session without saving
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Sessions lists the open sessions, oldest first
func (s *SessionService) Sessions() []models.SessionResponse {
	s.mu.RLock()
	list := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].createdAt.Before(list[j].createdAt) })
	out := make([]models.SessionResponse, 0, len(list))
	for _, sess := range list {
		sess.mu.Lock()
		out = append(out, s.describe(sess))
		sess.mu.Unlock()
	}
	return out
}

// Session describes one session
func (s *SessionService) Session(id string) (models.SessionResponse, error) {
	sess, err := s.get(id)
	if err != nil {
		return models.SessionResponse{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.describe(sess), nil
}

// describe must be called with sess.mu held, or before the session is shared
func (s *SessionService) describe(sess *session) models.SessionResponse {
	g := sess.editor.Graph()
	removed := 0
	for _, e := range g.Edges() {
		if e.IsRemoved {
			removed++
		}
	}

	history := sess.editor.History()
	names := []string{}
	for _, cmd := range history.Done() {
		names = append(names, cmd.Name())
	}

	return models.SessionResponse{
		ID:        sess.id,
		Graph:     sess.graphName,
		Nodes:     g.NumNodes(),
		Edges:     g.NumEdges(),
		Removed:   removed,
		Policy:    sess.editor.Policy().String(),
		CanUndo:   history.CanUndo(),
		CanRedo:   history.CanRedo(),
		History:   names,
		CreatedAt: sess.createdAt,
	}
}

// Apply builds the command described by req and runs it on the session
func (s *SessionService) Apply(ctx context.Context, id string, req models.CommandRequest) (models.CommandResponse, error) {
	sess, err := s.get(id)
	if err != nil {
		return models.CommandResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, err := s.buildCommand(ctx, sess.editor.Graph(), req)
	if err != nil {
		return models.CommandResponse{}, err
	}
	return s.run(ctx, sess, cmd)
}

// MarkCompleted highlights every street the index lists as completed
func (s *SessionService) MarkCompleted(ctx context.Context, id string) (models.CommandResponse, error) {
	if s.streets == nil {
		return models.CommandResponse{}, ErrNoStreetIndex
	}
	sess, err := s.get(id)
	if err != nil {
		return models.CommandResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.run(ctx, sess, &editor.HighlightByName{Names: s.streets.CompletedNames()})
}

// run must be called with sess.mu held
func (s *SessionService) run(ctx context.Context, sess *session, cmd editor.Command) (models.CommandResponse, error) {
	if err := sess.editor.Do(ctx, cmd); err != nil {
		return models.CommandResponse{}, err
	}
	s.autoSave(ctx, sess)

	resp := models.CommandResponse{Command: cmd.Name(), Session: s.describe(sess)}
	switch c := cmd.(type) {
	case *editor.AddNode:
		resp.NodeIDs = []int64{int64(c.ID())}
	case *editor.AddNodes:
		for _, id := range c.IDs() {
			resp.NodeIDs = append(resp.NodeIDs, int64(id))
		}
	case *editor.SplitGraph:
		for _, component := range c.Components() {
			ids := make([]int64, 0, len(component))
			for _, id := range component {
				ids = append(ids, int64(id))
			}
			resp.Components = append(resp.Components, ids)
		}
		resp.Saved = c.Saved()
	}
	return resp, nil
}

func (s *SessionService) autoSave(ctx context.Context, sess *session) {
	if !s.opts.AutoSave {
		return
	}
	if err := sess.editor.Save(ctx, sess.graphName); err != nil {
		log.Printf("WARNING: Auto-save of %q failed: %v", sess.graphName, err)
	}
}

// Undo reverts the last command of the session
func (s *SessionService) Undo(ctx context.Context, id string) (models.CommandResponse, error) {
	return s.step(ctx, id, (*editor.Editor).Undo)
}

// Redo applies the last undone command again
func (s *SessionService) Redo(ctx context.Context, id string) (models.CommandResponse, error) {
	return s.step(ctx, id, (*editor.Editor).Redo)
}

func (s *SessionService) step(ctx context.Context, id string, move func(*editor.Editor, context.Context) (editor.Command, error)) (models.CommandResponse, error) {
	sess, err := s.get(id)
	if err != nil {
		return models.CommandResponse{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd, err := move(sess.editor, ctx)
	if err != nil {
		return models.CommandResponse{}, err
	}
	s.autoSave(ctx, sess)
	return models.CommandResponse{Command: cmd.Name(), Session: s.describe(sess)}, nil
}

// Save stores the session graph under name, outside the history
func (s *SessionService) Save(ctx context.Context, id, name string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if name == "" {
		name = sess.graphName
	}
	return sess.editor.Save(ctx, name)
}

// Graph exports the session graph as GeoJSON
func (s *SessionService) Graph(id string) (*geojson.FeatureCollection, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return graph.ToGeoJSON(sess.editor.Graph()), nil
}

// Circuit solves the route inspection problem on the active part of the
// session graph and stores the result. An unroutable graph returns an
// empty route together with the error.
func (s *SessionService) Circuit(ctx context.Context, id string, req models.CircuitRequest) (models.CircuitResponse, error) {
	sess, err := s.get(id)
	if err != nil {
		return models.CircuitResponse{}, err
	}

	opts, err := s.postmanOptions(req)
	if err != nil {
		return models.CircuitResponse{}, err
	}

	sess.mu.Lock()
	g := sess.editor.Graph().Copy()
	name := sess.graphName
	sess.mu.Unlock()

	resp := models.CircuitResponse{GraphName: name, Route: geojson.NewFeatureCollection()}
	res, err := routing.NewPostman(opts).Solve(g)
	if err != nil {
		resp.Summary = routing.Summary(nil, routing.Stats{})
		return resp, err
	}

	resp.Stats = res.Stats
	resp.Summary = routing.Summary(res.Circuit, res.Stats)
	resp.Route = routing.CircuitToGeoJSON(res.Simple, res.Circuit)
	if len(res.Circuit) == 0 {
		return resp, nil
	}

	rec := storage.NewCircuitRecord(name, res)
	if err := s.store.SaveCircuit(ctx, rec); err != nil {
		log.Printf("WARNING: Failed to store circuit for %q: %v", name, err)
		return resp, nil
	}
	resp.ID = rec.ID.String()
	return resp, nil
}

func (s *SessionService) postmanOptions(req models.CircuitRequest) (routing.Options, error) {
	opts := routing.Options{
		UseLargestComponent: true,
		Component:           req.Component,
		TurnBackWeight:      s.opts.TurnBackWeight,
		MatchOnWeight:       req.MatchOnWeight,
	}
	if req.UseLargestComponent != nil {
		opts.UseLargestComponent = *req.UseLargestComponent
	}
	if req.TurnBackWeight > 0 {
		opts.TurnBackWeight = req.TurnBackWeight
	}
	if req.Source != nil {
		source := graph.NodeID(*req.Source)
		opts.Source = &source
	}

	if len(req.Weights) > 0 {
		opts.Weights = make(map[[2]graph.NodeID]float64, len(req.Weights))
		for key, weight := range req.Weights {
			parts := strings.Split(key, "-")
			if len(parts) != 2 {
				return opts, fmt.Errorf("%w: weight key %q is not src-dst", ErrInvalidRequest, key)
			}
			u, errU := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
			v, errV := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
			if errU != nil || errV != nil {
				return opts, fmt.Errorf("%w: weight key %q is not src-dst", ErrInvalidRequest, key)
			}
			opts.Weights[routing.PairKey(graph.NodeID(u), graph.NodeID(v))] = weight
		}
	}
	return opts, nil
}
