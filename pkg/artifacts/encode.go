package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/agentstation/fedtrack/pkg/errors"
)

// Marshaler is implemented by artifacts that are not JSON documents.
type Marshaler interface {
	MarshalArtifact() ([]byte, error)
}

// Encode serializes v as JSON followed by a newline. Struct fields keep
// declaration order and map keys are sorted, so equal values encode to
// equal bytes. A Marshaler encodes itself and indent is ignored.
func Encode(v any, indent bool) ([]byte, error) {
	if m, ok := v.(Marshaler); ok {
		data, err := m.MarshalArtifact()
		if err != nil {
			return nil, errors.WrapParse("artifact", "", err)
		}
		return data, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return buf.Bytes(), nil
}

// Digest returns the hex xxhash64 of data.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CleanName validates a slash-separated artifact name and replaces
// characters that are unsafe in file names.
func CleanName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", errors.NewValidationError("name", name, "artifact name must be a non-empty relative path")
	}
	parts := strings.Split(name, "/")
	for i, p := range parts {
		p = unsafeSegment.ReplaceAllString(p, "_")
		if p == "" || p == "." || p == ".." {
			return "", errors.NewValidationError("name", name, "artifact name has an empty or relative segment")
		}
		parts[i] = p
	}
	clean := path.Join(parts...)
	if strings.HasPrefix(path.Base(clean), stagingPrefix) {
		return "", errors.NewValidationError("name", name, "artifact name collides with the staging directory")
	}
	return clean, nil
}
