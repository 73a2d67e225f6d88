package orchestrator

import (
	"fmt"
	"strings"
	"sync"
)

// Workspace is the shared fact store for one project. Workers write findings
// under unique keys and later tasks read them back as prompt context.
//
// Writes are append-only per key: the execute phase runs tasks sequentially
// and each task writes its own key once, so concurrent readers are always
// safe.
type Workspace struct {
	projectID string

	mu    sync.RWMutex
	facts map[string]any
	order []string
}

func NewWorkspace(projectID string) *Workspace {
	return &Workspace{
		projectID: projectID,
		facts:     make(map[string]any),
	}
}

func (w *Workspace) ProjectID() string {
	return w.projectID
}

// SetFact stores a fact. First write of a key fixes its position in the
// context ordering.
func (w *Workspace) SetFact(key string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.facts[key]; !exists {
		w.order = append(w.order, key)
	}

	w.facts[key] = value
}

// GetFact retrieves a fact, or nil when absent.
func (w *Workspace) GetFact(key string) any {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.facts[key]
}

// Facts returns a copy of all stored facts.
func (w *Workspace) Facts() map[string]any {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[string]any, len(w.facts))
	for k, v := range w.facts {
		out[k] = v
	}

	return out
}

// GetContext renders the workspace as a human-readable summary, one fact per
// line in insertion order. Empty workspaces render as "".
func (w *Workspace) GetContext() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.order) == 0 {
		return ""
	}

	var b strings.Builder

	for _, key := range w.order {
		fmt.Fprintf(&b, "%s: %v\n", key, w.facts[key])
	}

	return strings.TrimRight(b.String(), "\n")
}

// Snapshot serializes the workspace state.
func (w *Workspace) Snapshot() map[string]any {
	return map[string]any{
		"project_id": w.projectID,
		"facts":      w.Facts(),
	}
}

// Restore loads facts from a snapshot produced by Snapshot.
func (w *Workspace) Restore(data map[string]any) {
	facts, ok := data["facts"].(map[string]any)
	if !ok {
		return
	}

	for key, value := range facts {
		w.SetFact(key, value)
	}
}
