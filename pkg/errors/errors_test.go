package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/fedtrack/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "generation", ID: "legacy"}
		assert.Equal(t, "generation with ID legacy not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("layout", "monthly-separations")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("workers", -1, "must be positive")
		assert.Equal(t, "validation failed for field workers: must be positive", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty manifest"}
		assert.Equal(t, "validation failed: empty manifest", err.Error())
	})
}

func TestSchemaMismatchError(t *testing.T) {
	err := pkgerrors.NewSchemaMismatchError("sep_2020.csv", "EFDATE", []string{"AGYSUB", "COUNT"})
	assert.Equal(t, `schema mismatch in sep_2020.csv: required field "EFDATE" not in header [AGYSUB, COUNT]`, err.Error())
	assert.True(t, pkgerrors.IsSchemaMismatch(err))
	assert.True(t, pkgerrors.IsStructural(fmt.Errorf("adapt: %w", err)))
}

func TestOverlapConflictError(t *testing.T) {
	t.Run("cell claim", func(t *testing.T) {
		err := pkgerrors.NewOverlapConflictError("separation", "XY", 202310, "legacy", "monthly")
		assert.Contains(t, err.Error(), "entity XY month 202310")
		assert.True(t, pkgerrors.IsOverlapConflict(err))
		assert.True(t, pkgerrors.IsStructural(err))
	})

	t.Run("window overlap", func(t *testing.T) {
		err := pkgerrors.NewOverlapConflictError("accession", "", 0, "monthly", "jsonl")
		assert.Equal(t, "overlap conflict for accession: windows of [monthly jsonl] overlap", err.Error())
	})
}

func TestUnresolvedEntityWarning(t *testing.T) {
	w := &pkgerrors.UnresolvedEntityWarning{SubEntity: "ZZ99", Events: 3}
	assert.Contains(t, w.Error(), "ZZ99")
	assert.True(t, errors.Is(w, pkgerrors.ErrUnresolved))
	assert.False(t, pkgerrors.IsStructural(w))
}

func TestConfigError(t *testing.T) {
	base := errors.New("gap between 202309 and 202311")
	err := pkgerrors.NewConfigError("timeline", "windows not contiguous", base)
	assert.Equal(t, "configuration error in timeline: windows not contiguous", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, pkgerrors.IsStructural(err))

	var cfg *pkgerrors.ConfigError
	require.True(t, errors.As(fmt.Errorf("plan: %w", err), &cfg))
	assert.Equal(t, "timeline", cfg.Component)
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ParseError
		want string
	}{
		{"with line", &pkgerrors.ParseError{Format: "jsonl", File: "a.jsonl", Line: 4, Message: "bad"}, "parse error in jsonl at a.jsonl:4: bad"},
		{"with file", &pkgerrors.ParseError{Format: "yaml", File: "m.yaml", Message: "bad"}, "parse error in yaml file m.yaml: bad"},
		{"bare", &pkgerrors.ParseError{Format: "csv", Message: "bad"}, "csv parse error: bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("csv", "x", nil))
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))

	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "/out/a.json", base)
	var ioErr *pkgerrors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Operation)
	assert.ErrorIs(t, err, base)
	assert.False(t, pkgerrors.IsStructural(err))

	perr := pkgerrors.WrapParse("yaml", "m.yaml", base)
	assert.ErrorIs(t, perr, base)

	verr := pkgerrors.WrapValidation("month", base)
	assert.True(t, pkgerrors.IsValidationError(verr))
}
