package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CoercionPolicy decides what happens when a drafted field fails typed
// conversion at commit time.
type CoercionPolicy int

const (
	// PolicyDrop omits failed fields from the payload and reports them.
	// This matches the historical behavior of the app.
	PolicyDrop CoercionPolicy = iota
	// PolicyAbort fails the whole commit when any field fails.
	PolicyAbort
)

// DroppedField records one field that failed coercion.
type DroppedField struct {
	Name   string
	Reason string
}

// CoercionReport lists the fields dropped from a commit payload so callers
// can surface them instead of losing edits silently.
type CoercionReport struct {
	Dropped []DroppedField
}

// Clean reports whether every drafted field coerced successfully.
func (r *CoercionReport) Clean() bool {
	return len(r.Dropped) == 0
}

func (r *CoercionReport) Error() string {
	names := make([]string, len(r.Dropped))
	for i, d := range r.Dropped {
		names[i] = d.Name
	}
	return "coercion failed for fields: " + strings.Join(names, ", ")
}

// Draft holds the unsaved field overrides for one listing in edit mode.
// Values are stored as entered (text inputs arrive as strings even for
// numeric fields); Coerce performs the typed conversion at commit time.
type Draft struct {
	fields map[string]any
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{fields: make(map[string]any)}
}

// Set merges one field override, last write wins.
func (d *Draft) Set(field string, value any) {
	d.fields[field] = value
}

// Clone returns an independent copy of the draft.
func (d *Draft) Clone() *Draft {
	out := NewDraft()
	for k, v := range d.fields {
		out.fields[k] = v
	}
	return out
}

// Unset removes a field override.
func (d *Draft) Unset(field string) {
	delete(d.fields, field)
}

// Len returns the number of drafted fields.
func (d *Draft) Len() int {
	return len(d.fields)
}

// Fields returns the drafted field names in sorted order.
func (d *Draft) Fields() []string {
	names := make([]string, 0, len(d.fields))
	for name := range d.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Coerce converts the draft into a typed update payload using the kind's
// schema. Under PolicyDrop, fields that fail conversion are omitted from the
// payload and listed in the report. Under PolicyAbort, any failure returns
// the report as the error and no payload.
func (d *Draft) Coerce(schema Schema, policy CoercionPolicy) (map[string]any, *CoercionReport, error) {
	payload := make(map[string]any, len(d.fields))
	report := &CoercionReport{}

	for _, name := range d.Fields() {
		raw := d.fields[name]
		ft, ok := schema[name]
		if !ok {
			report.Dropped = append(report.Dropped, DroppedField{Name: name, Reason: "unknown field"})
			continue
		}
		value, err := coerceValue(raw, ft)
		if err != nil {
			report.Dropped = append(report.Dropped, DroppedField{Name: name, Reason: err.Error()})
			continue
		}
		payload[name] = value
	}

	if policy == PolicyAbort && !report.Clean() {
		return nil, report, report
	}
	return payload, report, nil
}

func coerceValue(raw any, ft FieldType) (any, error) {
	switch ft {
	case FieldText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", raw)
		}
		return s, nil

	case FieldNumber:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("not a number: %q", v)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", raw)
		}

	case FieldBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := ParseYesNo(v)
			if err != nil {
				return nil, err
			}
			return b, nil
		default:
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}

	case FieldTextList:
		switch v := raw.(type) {
		case []string:
			return v, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("expected text list, got %T element", item)
				}
				out = append(out, s)
			}
			return out, nil
		case string:
			return []string{v}, nil
		default:
			return nil, fmt.Errorf("expected text list, got %T", raw)
		}
	}
	return nil, fmt.Errorf("unhandled field type %d", ft)
}
