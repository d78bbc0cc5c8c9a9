package rest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"
)

// dataURI is one decoded data: URI payload.
type dataURI struct {
	mediaType string
	data      []byte
}

// isDataURI reports whether s looks like a base64 data URI.
func isDataURI(s string) bool {
	return strings.HasPrefix(s, "data:") && strings.Contains(s, ";base64,")
}

// parseDataURI decodes "data:<mediatype>;base64,<payload>".
func parseDataURI(s string) (*dataURI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, fmt.Errorf("data URI is not base64-encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI payload: %w", err)
	}
	if meta == "" {
		meta = "application/octet-stream"
	}
	return &dataURI{mediaType: meta, data: data}, nil
}

// extensionFor picks a filename extension for a media type, falling back to
// ".bin" when the platform mime table has nothing.
func extensionFor(mediaType string) string {
	exts, err := mime.ExtensionsByType(mediaType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// payloadHasMedia reports whether any field value carries a data URI.
func payloadHasMedia(payload map[string]any) bool {
	for _, value := range payload {
		switch v := value.(type) {
		case string:
			if isDataURI(v) {
				return true
			}
		case []string:
			for _, s := range v {
				if isDataURI(s) {
					return true
				}
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && isDataURI(s) {
					return true
				}
			}
		}
	}
	return false
}

// encodePayload renders a mutation payload for transmission. One rule for
// every kind: data-URI media present means multipart form data with the
// binaries decoded into file parts; otherwise plain JSON.
func encodePayload(payload map[string]any) (io.Reader, string, error) {
	if !payloadHasMedia(payload) {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encode payload: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, value := range payload {
		switch v := value.(type) {
		case string:
			if err := writeStringPart(w, field, 0, v); err != nil {
				return nil, "", err
			}
		case []string:
			for i, s := range v {
				if err := writeStringPart(w, field, i, s); err != nil {
					return nil, "", err
				}
			}
		case []any:
			for i, item := range v {
				s, ok := item.(string)
				if !ok {
					if err := w.WriteField(field, fmt.Sprint(item)); err != nil {
						return nil, "", err
					}
					continue
				}
				if err := writeStringPart(w, field, i, s); err != nil {
					return nil, "", err
				}
			}
		case bool:
			if err := w.WriteField(field, strconv.FormatBool(v)); err != nil {
				return nil, "", err
			}
		case float64:
			if err := w.WriteField(field, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
				return nil, "", err
			}
		default:
			if err := w.WriteField(field, fmt.Sprint(v)); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeStringPart(w *multipart.Writer, field string, index int, value string) error {
	if !isDataURI(value) {
		return w.WriteField(field, value)
	}
	uri, err := parseDataURI(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", field, err)
	}
	filename := fmt.Sprintf("%s-%d%s", field, index, extensionFor(uri.mediaType))
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = part.Write(uri.data)
	return err
}
