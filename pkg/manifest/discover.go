package manifest

import (
	"context"
	"io/fs"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/sources"
)

// Input is one discovered source file.
type Input struct {
	// Index is the file's position in manifest order. It seeds the
	// sequence numbers used to break name ties deterministically.
	Index      int
	Generation string
	Rank       int
	Layout     sources.Layout
	Path       string
	Month      events.Month
}

// Discover expands every source glob against fsys. Files are returned in
// manifest order, sorted by path within each source. A file matched by two
// sources is an error because it would be counted twice.
func (m *Manifest) Discover(ctx context.Context, fsys fs.FS) ([]Input, error) {
	logger := logging.FromContext(ctx)
	reg := m.Registry()
	owner := make(map[string]string)
	var inputs []Input
	for _, g := range m.Generations {
		for _, s := range g.Sources {
			layout, ok := reg.Get(s.Layout)
			if !ok {
				return nil, errors.NewNotFoundError("layout", s.Layout)
			}
			matches, err := doublestar.Glob(fsys, s.Glob)
			if err != nil {
				return nil, errors.WrapValidation("sources.glob", err)
			}
			slices.Sort(matches)
			if len(matches) == 0 {
				logger.Warn().Str("generation", g.ID).Str("glob", s.Glob).Msg("source glob matched no files")
			}
			for _, p := range matches {
				p = path.Clean(p)
				if prev, dup := owner[p]; dup {
					return nil, errors.NewValidationError("sources.glob", p, "file matched by "+prev+" and "+g.ID+"/"+s.Layout)
				}
				owner[p] = g.ID + "/" + s.Layout
				inputs = append(inputs, Input{
					Index:      len(inputs),
					Generation: g.ID,
					Rank:       g.Rank,
					Layout:     layout,
					Path:       p,
					Month:      s.Month,
				})
			}
		}
	}
	return inputs, nil
}
