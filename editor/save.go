package editor

import (
	"context"
	"strings"
)

// SaveGraph persists a copy of the graph. Undo and redo leave the saved
// graph alone.
type SaveGraph struct {
	GraphName string
}

func (c *SaveGraph) execute(ctx context.Context, e *Editor) error {
	name := strings.TrimSpace(c.GraphName)
	if name == "" {
		return ErrCancelled
	}
	if e.opts.Saver == nil {
		return ErrNoSaver
	}
	return e.opts.Saver.SaveGraph(ctx, name, e.graph.Copy())
}

// Save writes the graph without going through the history, e.g. for auto
// save after every command.
func (e *Editor) Save(ctx context.Context, name string) error {
	if e.opts.Saver == nil {
		return ErrNoSaver
	}
	return e.opts.Saver.SaveGraph(ctx, name, e.graph.Copy())
}
