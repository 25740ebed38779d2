package swapicache

import (
	"encoding/json"
	"testing"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
		want  string
	}{
		{"object", `{"name": "Luke"}`, true, `{"name":"Luke"}`},
		{"array", ` [1, 2, 3] `, true, `[1,2,3]`},
		{"truncated", `{not json`, false, ""},
		{"empty", ``, false, ""},
		{"whitespace", "  \n", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, ok := ParseDocument([]byte(tt.input))
			if ok != tt.ok {
				t.Fatalf("ParseDocument(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && doc.String() != tt.want {
				t.Errorf("ParseDocument(%q) = %s, want %s", tt.input, doc, tt.want)
			}
		})
	}
}

func TestDocumentAccessors(t *testing.T) {
	doc := MustParseDocument(`{"count":36,"results":[{"name":"CR90 corvette","pilots":[]},{"name":"Star Destroyer"}]}`)

	if got := doc.Get("count").Int(); got != 36 {
		t.Errorf("count = %d, want 36", got)
	}
	if got := doc.Get("results.#").Int(); got != 2 {
		t.Errorf("results.# = %d, want 2", got)
	}
	if got := doc.Get("results.1.name").String(); got != "Star Destroyer" {
		t.Errorf("results.1.name = %q", got)
	}
	if !doc.Root().IsObject() {
		t.Error("Root() should be an object")
	}
}

func TestDocumentBytesIsCopy(t *testing.T) {
	doc := MustParseDocument(`{"a":1}`)
	b := doc.Bytes()
	b[0] = '['

	if doc.String() != `{"a":1}` {
		t.Errorf("mutating Bytes() changed the document: %s", doc)
	}
}

func TestDocumentMarshalJSON(t *testing.T) {
	payload := struct {
		Doc   Document `json:"doc"`
		Empty Document `json:"empty"`
	}{Doc: MustParseDocument(`{"a":1}`)}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("json.Marshal() error: %v", err)
	}
	if string(out) != `{"doc":{"a":1},"empty":null}` {
		t.Errorf("json.Marshal() = %s", out)
	}
}

func TestMustParseDocumentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseDocument should panic on invalid JSON")
		}
	}()
	MustParseDocument("{not json")
}
