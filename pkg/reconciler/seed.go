package reconciler

import (
	"io"

	"github.com/buger/jsonparser"

	"github.com/agentstation/fedtrack/pkg/errors"
)

// ReadSeed reads entity names from a previous run's agency-list.json.
// Entries without a code or name are ignored.
func ReadSeed(name string, r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	names := make(map[string]string)
	var inner error
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if inner != nil || dataType != jsonparser.Object {
			return
		}
		code, err := jsonparser.GetString(value, "code")
		if err != nil && err != jsonparser.KeyPathNotFoundError {
			inner = err
			return
		}
		display, err := jsonparser.GetString(value, "name")
		if err != nil && err != jsonparser.KeyPathNotFoundError {
			inner = err
			return
		}
		if code != "" && display != "" {
			names[code] = display
		}
	})
	if err == nil {
		err = inner
	}
	if err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	return names, nil
}
