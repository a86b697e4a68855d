package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func TestContextFunctions(t *testing.T) {
	t.Run("FromContext falls back to default", func(t *testing.T) {
		assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	})

	t.Run("chained fields reach the output", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithRun(ctx, "run-1")
		ctx = logging.WithGeneration(ctx, "legacy")
		ctx = logging.WithSource(ctx, "sep_2019.csv")
		ctx = logging.WithOperation(ctx, "ingest")

		logging.FromContext(ctx).Info().Msg("ingested")

		assert.True(t, tl.Contains(`"run_id":"run-1"`))
		assert.True(t, tl.Contains(`"generation":"legacy"`))
		assert.True(t, tl.Contains(`"source":"sep_2019.csv"`))
		assert.True(t, tl.Contains(`"operation":"ingest"`))
		assert.Len(t, tl.Lines(), 1)
	})

	t.Run("WithFields and WithError", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithFields(ctx, map[string]any{"rows": 12, "month": "202310"})
		ctx = logging.WithError(ctx, errors.New("boom"))
		assert.Equal(t, ctx, logging.WithError(ctx, nil))

		logging.FromContext(ctx).Warn().Msg("partial")

		assert.True(t, tl.Contains(`"rows":12`))
		assert.True(t, tl.Contains(`"error":"boom"`))
	})
}
