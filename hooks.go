package fedtrack

import (
	"sync"

	"github.com/agentstation/fedtrack/pkg/artifacts"
	"github.com/agentstation/fedtrack/pkg/reconciler"
)

// Hook function types for run events
type (
	// ArtifactHook is called when an artifact is committed
	ArtifactHook func(entry artifacts.Entry)

	// SourceLoadedHook is called when a source file has been ingested
	SourceLoadedHook func(report reconciler.FileReport)
)

// hooks manages event callbacks for a run
type hooks struct {
	mu             sync.RWMutex
	onArtifact     []ArtifactHook
	onSourceLoaded []SourceLoadedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnArtifact registers a callback for committed artifacts
func (t *tracker) OnArtifact(fn ArtifactHook) {
	t.hooks.mu.Lock()
	defer t.hooks.mu.Unlock()
	t.hooks.onArtifact = append(t.hooks.onArtifact, fn)
}

// OnSourceLoaded registers a callback for ingested source files
func (t *tracker) OnSourceLoaded(fn SourceLoadedHook) {
	t.hooks.mu.Lock()
	defer t.hooks.mu.Unlock()
	t.hooks.onSourceLoaded = append(t.hooks.onSourceLoaded, fn)
}

func (h *hooks) artifactWritten(e artifacts.Entry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onArtifact {
		fn(e)
	}
}

func (h *hooks) sourceLoaded(r reconciler.FileReport) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSourceLoaded {
		fn(r)
	}
}
