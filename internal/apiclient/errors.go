package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Msg    string
	Detail string
	// Fields holds per-field validation messages (Django serializer errors).
	Fields map[string][]string
	Raw    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message())
}

// Message picks the most useful human readable text from the payload.
func (e *APIError) Message() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Detail != "":
		return e.Detail
	}
	if name, msg := e.FirstField(); msg != "" {
		if name == "non_field_errors" {
			return msg
		}
		return name + ": " + msg
	}
	return fmt.Sprintf("Request failed with status %d", e.Status)
}

// FirstField returns the first field error in key order.
func (e *APIError) FirstField() (string, string) {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(e.Fields[k]) > 0 {
			return k, e.Fields[k][0]
		}
	}
	return "", ""
}

// Field returns the messages for one field.
func (e *APIError) Field(name string) []string { return e.Fields[name] }

// Mentions reports whether any text in the payload contains s, case folded.
func (e *APIError) Mentions(s string) bool {
	s = strings.ToLower(s)
	if strings.Contains(strings.ToLower(e.Msg), s) || strings.Contains(strings.ToLower(e.Detail), s) {
		return true
	}
	for _, msgs := range e.Fields {
		for _, m := range msgs {
			if strings.Contains(strings.ToLower(m), s) {
				return true
			}
		}
	}
	return false
}

func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func (e *APIError) Forbidden() bool {
	return e.Status == http.StatusForbidden
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func parseAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status, Raw: json.RawMessage(raw), Fields: map[string][]string{}}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			e.Msg = list[0]
		}
		return e
	}

	for key, val := range obj {
		switch key {
		case "message":
			e.Msg = textOf(val)
		case "detail":
			e.Detail = textOf(val)
		case "error":
			// either a plain string or {"message": ..., "detail": ...}
			var nested struct {
				Message string `json:"message"`
				Detail  string `json:"detail"`
			}
			if json.Unmarshal(val, &nested) == nil && (nested.Message != "" || nested.Detail != "") {
				if e.Msg == "" {
					e.Msg = nested.Message
				}
				if e.Detail == "" {
					e.Detail = nested.Detail
				}
				continue
			}
			if s := textOf(val); s != "" && e.Msg == "" {
				e.Msg = s
			}
		default:
			if msgs := textsOf(val); len(msgs) > 0 {
				e.Fields[key] = msgs
			}
		}
	}
	return e
}

func textOf(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func textsOf(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return []string{s}
	}
	return nil
}
