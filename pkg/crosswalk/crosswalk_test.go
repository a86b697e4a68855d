package crosswalk_test

import (
	"context"
	"strings"
	"testing"

	"github.com/agentstation/fedtrack/pkg/crosswalk"
	"github.com/agentstation/fedtrack/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = `AGYSUB,AGY,AGYT
XY01,XY,DEPARTMENT OF EXAMPLES
xy02,XY,DEPARTMENT OF EXAMPLES
XY01,ZZ,DUPLICATE IGNORED
,QQ,NO SUB
`

func TestLoadAndResolve(t *testing.T) {
	r, err := crosswalk.Load(context.Background(), "DTagy.txt", strings.NewReader(table), crosswalk.DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	e, ok := r.Resolve("XY01")
	require.True(t, ok)
	assert.Equal(t, crosswalk.Entry{Entity: "XY", Name: "DEPARTMENT OF EXAMPLES"}, e)

	e, ok = r.Resolve(" xy02 ")
	require.True(t, ok)
	assert.Equal(t, "XY", e.Entity)

	_, ok = r.Resolve("ZZ99")
	assert.False(t, ok)

	var empty *crosswalk.Resolver
	_, ok = empty.Resolve("XY01")
	assert.False(t, ok)
}

func TestLoadSchemaMismatch(t *testing.T) {
	_, err := crosswalk.Load(context.Background(), "DTagy.txt", strings.NewReader("AGYSUB,AGYT\nXY01,X\n"), crosswalk.DefaultLayout())
	require.Error(t, err)
	assert.True(t, errors.IsSchemaMismatch(err))

	_, err = crosswalk.Load(context.Background(), "empty.txt", strings.NewReader(""), crosswalk.DefaultLayout())
	assert.True(t, errors.IsSchemaMismatch(err))
}

func TestTally(t *testing.T) {
	a := crosswalk.NewTally()
	a.Miss("ZZ99")
	a.Miss("ZZ99")
	b := crosswalk.NewTally()
	b.Miss("AA01")
	a.Merge(b)

	assert.Equal(t, int64(3), a.Events())
	w := a.Warnings()
	require.Len(t, w, 2)
	assert.Equal(t, "AA01", w[0].SubEntity)
	assert.Equal(t, int64(2), w[1].Events)
	assert.True(t, errors.Is(&w[1], errors.ErrUnresolved))
}
