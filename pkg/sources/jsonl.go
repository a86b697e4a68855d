package sources

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/buger/jsonparser"

	pkgerrors "github.com/agentstation/fedtrack/pkg/errors"
	"github.com/agentstation/fedtrack/pkg/events"
)

const maxLineBytes = 4 << 20

// jsonlAdapter reads newline-delimited JSON objects. The keys of the first
// object stand in for a header.
type jsonlAdapter struct {
	adapterBase
}

// Adapt implements Adapter.
func (a *jsonlAdapter) Adapt(ctx context.Context, name string, r io.Reader, emit func(events.Event) error) (Stats, error) {
	var stats Stats
	month, err := a.fileMonth(name)
	if err != nil {
		return stats, err
	}

	sl := newSlots(&a.layout)
	slotOf := make(map[string]int, len(sl.fields))
	for i, f := range sl.fields {
		slotOf[strings.ToLower(f)] = i
	}
	b := &rowBuilder{
		layout:   &a.layout,
		opts:     &a.opts,
		slots:    sl,
		month:    month,
		redacted: a.layout.redactionTokens(),
		stats:    &stats,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	vals := make([]string, len(sl.fields))
	checked := false
	for scanner.Scan() {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		if !checked {
			if err := a.checkKeys(name, data); err != nil {
				return stats, err
			}
			checked = true
		}

		stats.Rows++
		if err := cancelled(ctx, stats.Rows); err != nil {
			return stats, err
		}

		clear(vals)
		err := jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
			i, ok := slotOf[strings.ToLower(string(key))]
			if !ok {
				return nil
			}
			switch vt {
			case jsonparser.String:
				s, err := jsonparser.ParseString(value)
				if err != nil {
					return err
				}
				vals[i] = s
			case jsonparser.Number, jsonparser.Boolean:
				vals[i] = string(value)
			}
			return nil
		})
		if err != nil {
			stats.malformed("unparsable")
			continue
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
	if err := scanner.Err(); err != nil {
		return stats, pkgerrors.NewParseError("jsonl", name, err.Error(), err)
	}
	if !checked {
		return stats, pkgerrors.NewSchemaMismatchError(name, a.layout.RequiredFields()[0], nil)
	}
	return stats, nil
}

// checkKeys validates the first object against the layout's required fields.
func (a *jsonlAdapter) checkKeys(name string, data []byte) error {
	var keys []string
	seen := make(map[string]bool)
	err := jsonparser.ObjectEach(data, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		k := strings.ToLower(string(key))
		keys = append(keys, k)
		seen[k] = true
		return nil
	})
	if err != nil {
		return pkgerrors.NewParseError("jsonl", name, "first record is not a JSON object", err)
	}
	return checkHeader(&a.layout, name, keys, func(f string) bool {
		return seen[strings.ToLower(f)]
	})
}
