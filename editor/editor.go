package editor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"coverage-route-server/graph"
)

var (
	ErrCancelled        = errors.New("command cancelled")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrUnknownNode      = errors.New("unknown node")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
	ErrNoSaver          = errors.New("no graph saver configured")
)

// DefaultHighway is the road type given to hand-drawn edges
const DefaultHighway = "footway"

// GraphSaver persists a graph under a name
type GraphSaver interface {
	SaveGraph(ctx context.Context, name string, g *graph.Graph) error
}

// Options configures an Editor
type Options struct {
	Policy         graph.TogglePolicy // Which component survives a disconnecting toggle
	KeepNode       *graph.NodeID      // Anchor of graph.KeepFromNode
	DefaultHighway string
	Saver          GraphSaver
}

// Editor applies undoable commands to a single graph. It is not safe for
// concurrent use: callers serialize access to one editor.
type Editor struct {
	graph   *graph.Graph
	opts    Options
	history History
}

func New(g *graph.Graph, opts Options) *Editor {
	if opts.DefaultHighway == "" {
		opts.DefaultHighway = DefaultHighway
	}
	return &Editor{graph: g, opts: opts}
}

func (e *Editor) Graph() *graph.Graph { return e.graph }

func (e *Editor) History() *History { return &e.history }

func (e *Editor) Policy() graph.TogglePolicy { return e.opts.Policy }

// SetPolicy changes the toggle policy used by subsequent commands
func (e *Editor) SetPolicy(policy graph.TogglePolicy, keep *graph.NodeID) {
	e.opts.Policy = policy
	e.opts.KeepNode = keep
}

// Do executes a command and records it for undo. A failing command leaves
// the graph untouched and is not recorded.
func (e *Editor) Do(ctx context.Context, cmd Command) error {
	if err := e.execute(ctx, cmd); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	e.history.pushDone(cmd)
	log.Printf("Executed %s (%d done, %d redoable)", cmd.Name(), len(e.history.done), len(e.history.redone))
	return nil
}

// Undo reverts the most recent command
func (e *Editor) Undo(ctx context.Context) (Command, error) {
	cmd, ok := e.history.popDone()
	if !ok {
		return nil, ErrNothingToUndo
	}
	if err := e.undo(ctx, cmd); err != nil {
		e.history.pushDone(cmd)
		return nil, fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	e.history.pushRedone(cmd)
	return cmd, nil
}

// Redo re-applies the most recently undone command
func (e *Editor) Redo(ctx context.Context) (Command, error) {
	cmd, ok := e.history.popRedone()
	if !ok {
		return nil, ErrNothingToRedo
	}
	if err := e.redo(ctx, cmd); err != nil {
		e.history.pushRedone(cmd)
		return nil, fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	e.history.pushDone(cmd)
	return cmd, nil
}

func (e *Editor) execute(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case *Toggle:
		return c.execute(e)
	case *ToggleType:
		return c.execute(e)
	case *Highlight:
		return c.execute(e)
	case *HighlightByName:
		return c.execute(e)
	case *AddNode:
		return c.execute(e)
	case *AddNodes:
		return c.execute(e)
	case *AddEdge:
		return c.execute(e)
	case *AddEdges:
		return c.execute(e)
	case *RemoveToggled:
		return c.execute(e)
	case *ExtendGraph:
		return c.execute(e)
	case *SplitGraph:
		return c.execute(ctx, e)
	case *SetDistances:
		return c.execute(e)
	case *SaveGraph:
		return c.execute(ctx, e)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func (e *Editor) undo(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case *Toggle:
		c.changes.flip(e.graph)
	case *ToggleType:
		c.changes.flip(e.graph)
	case *Highlight:
		c.changes.flip(e.graph)
	case *HighlightByName:
		c.changes.flip(e.graph)
	case *AddNode:
		e.graph.RemoveNode(c.id)
	case *AddNodes:
		for _, id := range c.ids {
			e.graph.RemoveNode(id)
		}
	case *AddEdge:
		c.added.remove(e.graph)
	case *AddEdges:
		c.added.remove(e.graph)
	case *RemoveToggled:
		c.removed.restore(e.graph)
	case *ExtendGraph:
		c.added.remove(e.graph)
	case *SplitGraph:
		c.changes.flip(e.graph)
	case *SetDistances:
		c.undo(e)
	case *SaveGraph:
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

func (e *Editor) redo(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case *Toggle:
		c.changes.flip(e.graph)
	case *ToggleType:
		c.changes.flip(e.graph)
	case *Highlight:
		c.changes.flip(e.graph)
	case *HighlightByName:
		c.changes.flip(e.graph)
	case *AddNode:
		c.redo(e)
	case *AddNodes:
		c.redo(e)
	case *AddEdge:
		c.added.restore(e.graph)
	case *AddEdges:
		c.added.restore(e.graph)
	case *RemoveToggled:
		c.removed.remove(e.graph)
	case *ExtendGraph:
		c.added.restore(e.graph)
	case *SplitGraph:
		c.changes.flip(e.graph)
		return c.save(ctx, e)
	case *SetDistances:
		return c.execute(e)
	case *SaveGraph:
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

// History keeps executed commands for undo and undone commands for redo.
// A new command does not clear the redo stack: earlier undone commands stay
// redoable on top of it.
type History struct {
	done   []Command
	redone []Command
}

func (h *History) CanUndo() bool { return len(h.done) > 0 }
func (h *History) CanRedo() bool { return len(h.redone) > 0 }

// Done lists executed commands, oldest first
func (h *History) Done() []Command { return append([]Command(nil), h.done...) }

// Redone lists undone commands, oldest first
func (h *History) Redone() []Command { return append([]Command(nil), h.redone...) }

func (h *History) pushDone(cmd Command)   { h.done = append(h.done, cmd) }
func (h *History) pushRedone(cmd Command) { h.redone = append(h.redone, cmd) }

func (h *History) popDone() (Command, bool) {
	if len(h.done) == 0 {
		return nil, false
	}
	cmd := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	return cmd, true
}

func (h *History) popRedone() (Command, bool) {
	if len(h.redone) == 0 {
		return nil, false
	}
	cmd := h.redone[len(h.redone)-1]
	h.redone = h.redone[:len(h.redone)-1]
	return cmd, true
}
