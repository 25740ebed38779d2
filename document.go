package swapicache

import (
	"bytes"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Document is an immutable parsed JSON document returned by the remote API.
// It keeps the compact serialized form; fields are read with gjson paths.
type Document struct {
	raw []byte
}

// ParseDocument validates body as JSON and returns its compact form.
// It reports false when body is not a valid JSON document.
func ParseDocument(body []byte) (Document, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return Document{}, false
	}
	return Document{raw: pretty.Ugly(body)}, true
}

// MustParseDocument is like ParseDocument but panics on invalid input.
// Intended for tests and static fixtures.
func MustParseDocument(s string) Document {
	doc, ok := ParseDocument([]byte(s))
	if !ok {
		panic("swapicache: invalid JSON document: " + s)
	}
	return doc
}

// Get returns the value at the given gjson path.
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Root returns the whole document as a gjson result.
func (d Document) Root() gjson.Result {
	return gjson.ParseBytes(d.raw)
}

// Size is the serialized byte length of the document.
func (d Document) Size() int {
	return len(d.raw)
}

// IsZero reports whether d holds no document.
func (d Document) IsZero() bool {
	return len(d.raw) == 0
}

// Bytes returns a copy of the compact serialized document.
func (d Document) Bytes() []byte {
	return append([]byte(nil), d.raw...)
}

// Equal reports whether both documents serialize identically.
func (d Document) Equal(other Document) bool {
	return bytes.Equal(d.raw, other.raw)
}

func (d Document) String() string {
	return string(d.raw)
}

// MarshalJSON emits the document unchanged.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return d.Bytes(), nil
}
