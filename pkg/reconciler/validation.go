package reconciler

import (
	"context"
	"io"
	"io/fs"

	"github.com/hashicorp/go-multierror"

	"github.com/agentstation/fedtrack/pkg/constants"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/manifest"
)

// errHeaderChecked stops an adapter after its first row.
var errHeaderChecked = errors.New("header checked")

// Validate implements Reconciler.
func (r *reconciler) Validate(ctx context.Context, fsys fs.FS, inputs []manifest.Input) error {
	logger := logging.FromContext(ctx)
	var result *multierror.Error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return multierror.Append(result, err)
		}
		if err := r.validateFile(ctx, fsys, in); err != nil {
			logger.Warn().Err(err).Str("source", in.Path).Msg("source failed validation")
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	logger.Info().Int("files", len(inputs)).Msg("all sources valid")
	return nil
}

func (r *reconciler) validateFile(ctx context.Context, fsys fs.FS, in manifest.Input) error {
	adapter, err := r.adapter(in)
	if err != nil {
		return err
	}
	f, err := fsys.Open(in.Path)
	if err != nil {
		return errors.WrapIO("open", in.Path, err)
	}
	defer func() { _ = f.Close() }()

	// Malformed rows never reach emit, so the read is also capped by lines.
	limited := &lineLimitReader{r: f, left: constants.ValidateLineLimit}
	_, err = adapter.Adapt(ctx, in.Path, limited, func(events.Event) error { return errHeaderChecked })
	if errors.Is(err, errHeaderChecked) {
		return nil
	}
	return err
}

// lineLimitReader reports io.EOF once left newlines have been read.
type lineLimitReader struct {
	r    io.Reader
	left int
}

func (l *lineLimitReader) Read(p []byte) (int, error) {
	if l.left <= 0 {
		return 0, io.EOF
	}
	n, err := l.r.Read(p)
	for i, c := range p[:n] {
		if c != '\n' {
			continue
		}
		l.left--
		if l.left == 0 {
			return i + 1, nil
		}
	}
	return n, err
}
