// Package artifacts writes projected documents to an output directory.
//
// Artifacts are staged into a hidden directory next to the final output
// and only renamed into place by Commit, once every document of the run
// has been staged. A failed run never leaves a partially replaced tree.
package artifacts

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/logging"
)

// ManifestName is the artifact listing every other artifact of a run.
const ManifestName = "manifest.json"

const stagingPrefix = ".staging-"

// Entry describes one written artifact.
type Entry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Digest string `json:"xxhash"`
}

// Manifest is the content of manifest.json.
type Manifest struct {
	Artifacts []Entry `json:"artifacts"`
}

// Materializer stages and commits artifacts for one run. Stage is safe for
// concurrent use.
type Materializer struct {
	root    string
	staging string
	options *options

	mu        sync.Mutex
	staged    map[string]Entry
	committed bool
}

// New prepares a materializer writing under root.
func New(root string, opts ...Option) (*Materializer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if root == "" {
		return nil, errors.NewConfigError("artifacts", "output directory is required", nil)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	m := &Materializer{
		root:    root,
		staging: filepath.Join(root, stagingPrefix+o.runID),
		options: o,
		staged:  make(map[string]Entry),
	}
	if o.dryRun {
		return m, nil
	}
	if err := os.MkdirAll(m.staging, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", m.staging, err)
	}
	return m, nil
}

// StagingDir returns the directory artifacts are staged in.
func (m *Materializer) StagingDir() string {
	return m.staging
}

// Stage encodes v and writes it to the staging directory under name.
// Staging the same name twice replaces the earlier document.
func (m *Materializer) Stage(name string, v any) (Entry, error) {
	clean, err := CleanName(name)
	if err != nil {
		return Entry{}, err
	}
	if clean == ManifestName {
		return Entry{}, errors.NewValidationError("name", name, "manifest.json is reserved")
	}
	data, err := Encode(v, m.options.indent)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding %s: %w", clean, err)
	}
	entry := Entry{Name: clean, Size: int64(len(data)), Digest: Digest(data)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.committed {
		return Entry{}, errors.NewValidationError("name", name, "materializer already committed")
	}
	if !m.options.dryRun {
		if err := writeFile(filepath.Join(m.staging, filepath.FromSlash(clean)), data); err != nil {
			return Entry{}, err
		}
	}
	m.staged[clean] = entry
	return entry, nil
}

// Entries returns the staged entries ordered by name.
func (m *Materializer) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries()
}

func (m *Materializer) entries() []Entry {
	out := make([]Entry, 0, len(m.staged))
	for _, e := range m.staged {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Commit writes manifest.json and moves every staged artifact into the
// output directory. Each move is a rename, so readers see either the old
// or the new version of a file. A context canceled before the first move
// leaves the output directory untouched; after that, Commit finishes every
// move. With pruning enabled, artifacts listed by the previous manifest
// that this run did not produce are removed.
func (m *Materializer) Commit(ctx context.Context) (Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.committed {
		return Manifest{}, errors.NewValidationError("commit", nil, "materializer already committed")
	}
	logger := logging.FromContext(ctx)

	manifest := Manifest{Artifacts: m.entries()}
	data, err := Encode(manifest, m.options.indent)
	if err != nil {
		return Manifest{}, err
	}
	m.committed = true
	if m.options.dryRun {
		logger.Info().Int("artifacts", len(manifest.Artifacts)).Msg("dry run, nothing written")
		return manifest, nil
	}
	if err := writeFile(filepath.Join(m.staging, ManifestName), data); err != nil {
		return Manifest{}, err
	}

	// Cancellation is honored up to the first rename. Once the output
	// directory has been touched every move runs to completion.
	if err := ctx.Err(); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	previous := m.previous()
	for _, e := range manifest.Artifacts {
		if err := m.move(e.Name); err != nil {
			return Manifest{}, err
		}
		if m.options.onWrite != nil {
			m.options.onWrite(e)
		}
	}
	if err := m.move(ManifestName); err != nil {
		return Manifest{}, err
	}

	if m.options.prune {
		for _, e := range previous.Artifacts {
			name, err := CleanName(e.Name)
			if err != nil || name != e.Name || name == ManifestName {
				continue
			}
			if _, ok := m.staged[name]; ok {
				continue
			}
			path := filepath.Join(m.root, filepath.FromSlash(name))
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("artifact", e.Name).Msg("could not remove stale artifact")
				continue
			}
			logger.Debug().Str("artifact", e.Name).Msg("removed stale artifact")
		}
	}

	if err := os.RemoveAll(m.staging); err != nil {
		return Manifest{}, errors.WrapIO("remove", m.staging, err)
	}
	logger.Info().
		Int("artifacts", len(manifest.Artifacts)).
		Str("dir", m.root).
		Msg("artifacts committed")
	return manifest, nil
}

// Abort discards everything staged. It is safe to call after Commit.
func (m *Materializer) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = true
	if m.options.dryRun {
		return nil
	}
	if err := os.RemoveAll(m.staging); err != nil {
		return errors.WrapIO("remove", m.staging, err)
	}
	return nil
}

// previous reads the manifest of the last committed run, if any.
func (m *Materializer) previous() Manifest {
	var prev Manifest
	data, err := os.ReadFile(filepath.Join(m.root, ManifestName))
	if err != nil {
		return prev
	}
	if err := json.Unmarshal(data, &prev); err != nil {
		return Manifest{}
	}
	return prev
}

func (m *Materializer) move(name string) error {
	src := filepath.Join(m.staging, filepath.FromSlash(name))
	dst := filepath.Join(m.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.WrapIO("rename", dst, err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
