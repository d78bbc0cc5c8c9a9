package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError is a client-side precondition failure detected before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var phoneRegexp = regexp.MustCompile(`^\+?[0-9][0-9 \-]{4,19}$`)

// ValidateCreate checks the per-kind required-field policy for a creation
// payload. Policies mirror the screens: a job needs a title and a location,
// a document or general post needs text or media, and so on. A nil error
// means the payload may be sent to the backend.
func ValidateCreate(kind Kind, payload map[string]any) error {
	switch kind {
	case KindJob:
		if stringField(payload, "title") == "" {
			return &ValidationError{Field: "title", Reason: "required"}
		}
		if stringField(payload, "job_location") == "" {
			return &ValidationError{Field: "job_location", Reason: "required"}
		}

	case KindCondo:
		if stringField(payload, "name") == "" {
			return &ValidationError{Field: "name", Reason: "required"}
		}
		if fee, ok := numberField(payload, "rent_fee"); ok && fee < 0 {
			return &ValidationError{Field: "rent_fee", Reason: "must not be negative"}
		}

	case KindHotel:
		if stringField(payload, "name") == "" {
			return &ValidationError{Field: "name", Reason: "required"}
		}
		if err := validateRating(payload); err != nil {
			return err
		}

	case KindCourse:
		if stringField(payload, "title") == "" {
			return &ValidationError{Field: "title", Reason: "required"}
		}

	case KindRestaurant:
		if stringField(payload, "name") == "" {
			return &ValidationError{Field: "name", Reason: "required"}
		}
		if err := validateRating(payload); err != nil {
			return err
		}

	case KindTravelPost:
		if stringField(payload, "title") == "" {
			return &ValidationError{Field: "title", Reason: "required"}
		}

	case KindDocPost:
		if stringField(payload, "text") == "" && stringField(payload, "media_url") == "" {
			return &ValidationError{Field: "text", Reason: "text or media required"}
		}

	case KindGeneral:
		if stringField(payload, "text") == "" && len(listField(payload, "media_urls")) == 0 {
			return &ValidationError{Field: "text", Reason: "text or media required"}
		}
	}

	if phone := stringField(payload, "phone"); phone != "" && !phoneRegexp.MatchString(phone) {
		return &ValidationError{Field: "phone", Reason: "malformed phone number"}
	}

	return nil
}

func validateRating(payload map[string]any) error {
	if rating, ok := numberField(payload, "rating"); ok && (rating < 0 || rating > 5) {
		return &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
	}
	return nil
}

func stringField(payload map[string]any, name string) string {
	s, _ := payload[name].(string)
	return strings.TrimSpace(s)
}

func numberField(payload map[string]any, name string) (float64, bool) {
	switch v := payload[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func listField(payload map[string]any, name string) []string {
	// Payloads decoded from JSON arrive with arrays as []any.
	switch v := payload[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
