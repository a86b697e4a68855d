package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	pkgerrors "github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

// delimitedAdapter reads comma- or pipe-delimited files with a header row.
type delimitedAdapter struct {
	adapterBase
}

// Adapt implements Adapter.
func (a *delimitedAdapter) Adapt(ctx context.Context, name string, r io.Reader, emit func(events.Event) error) (Stats, error) {
	var stats Stats
	month, err := a.fileMonth(name)
	if err != nil {
		return stats, err
	}

	reader := csv.NewReader(r)
	reader.Comma = []rune(a.layout.delimiter())[0]
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, pkgerrors.NewSchemaMismatchError(name, a.layout.RequiredFields()[0], nil)
		}
		return stats, pkgerrors.WrapParse("csv", name, err)
	}
	header = append([]string(nil), header...)
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		header[i] = h
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	present := func(field string) bool {
		_, ok := columns[strings.ToLower(field)]
		return ok
	}
	if err := checkHeader(&a.layout, name, header, present); err != nil {
		return stats, err
	}

	sl := newSlots(&a.layout)
	index := make([]int, len(sl.fields))
	for i, f := range sl.fields {
		col, ok := columns[strings.ToLower(f)]
		if !ok {
			col = -1
		}
		index[i] = col
	}

	b := &rowBuilder{
		layout:   &a.layout,
		opts:     &a.opts,
		slots:    sl,
		month:    month,
		redacted: a.layout.redactionTokens(),
		stats:    &stats,
	}
	vals := make([]string, len(sl.fields))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Rows++
				stats.malformed("unparsable")
				continue
			}
			return stats, pkgerrors.WrapParse("csv", name, err)
		}
		stats.Rows++
		if err := cancelled(ctx, stats.Rows); err != nil {
			return stats, err
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			stats.Rows--
			continue
		}

		for i, col := range index {
			vals[i] = ""
			if col >= 0 && col < len(record) {
				vals[i] = record[col]
			}
		}
		e, ok := b.build(vals)
		if !ok {
			continue
		}
		if err := emit(e); err != nil {
			return stats, err
		}
		stats.Emitted++
	}
	return stats, nil
}
