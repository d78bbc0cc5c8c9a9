package catalog

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshalNumberAndString(t *testing.T) {
	var j Job
	if err := json.Unmarshal([]byte(`{"id": 42, "title": "Chef"}`), &j); err != nil {
		t.Fatal(err)
	}
	if j.ID != "42" {
		t.Errorf("numeric id = %q, want 42", j.ID)
	}

	var d DocPost
	if err := json.Unmarshal([]byte(`{"id": "doc-9f", "text": "hi"}`), &d); err != nil {
		t.Fatal(err)
	}
	if d.ID != "doc-9f" {
		t.Errorf("string id = %q, want doc-9f", d.ID)
	}
}

func TestIDMarshalPreservesNumeric(t *testing.T) {
	data, err := json.Marshal(ID("42"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "42" {
		t.Errorf("numeric id marshals to %s, want bare 42", data)
	}

	data, err = json.Marshal(ID("doc-9f"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"doc-9f"` {
		t.Errorf("string id marshals to %s", data)
	}
}

func TestIDMarshalNonCanonicalNumericString(t *testing.T) {
	// "007" parses as an integer but is not a valid JSON number token;
	// it must marshal as a string so the containing record stays valid.
	for id, want := range map[ID]string{
		"007": `"007"`,
		"+7":  `"+7"`,
		"-7":  `-7`,
		"0":   `0`,
		"":    `""`,
	} {
		data, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("marshal %q: %v", id, err)
		}
		if string(data) != want {
			t.Errorf("id %q marshals to %s, want %s", id, data, want)
		}
	}

	rec := Job{ID: "007", Title: "Spy"}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("record with non-canonical id: %v", err)
	}
	var back Job
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID != "007" {
		t.Errorf("id round-trips to %q, want 007", back.ID)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("boats"); err == nil {
		t.Error("ParseKind(boats) should fail")
	}
}
