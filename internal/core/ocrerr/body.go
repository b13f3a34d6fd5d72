package ocrerr

import (
	"encoding/json"
	"sort"
	"strings"
)

type parsedBody struct {
	code    string
	message string
	fields  map[string][]string
}

// parseBody understands the two error envelopes the service emits:
//
//	{"error": {"code": "...", "message": "...", "details": {"field": ["msg"]}}}
//	{"code": "...", "message": "...", "errors": {"field": "msg"}}
//
// A plain string "error" value is used as the message.
func parseBody(body []byte) parsedBody {
	var out parsedBody
	if len(body) == 0 {
		return out
	}

	var envelope struct {
		Code    string                     `json:"code"`
		Message string                     `json:"message"`
		Error   json.RawMessage            `json:"error"`
		Errors  map[string]json.RawMessage `json:"errors"`
		Details map[string]json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		out.message = truncate(strings.TrimSpace(string(body)), 200)
		return out
	}

	out.code = envelope.Code
	out.message = envelope.Message
	out.fields = mergeFields(out.fields, envelope.Errors)
	out.fields = mergeFields(out.fields, envelope.Details)

	if len(envelope.Error) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Error, &s); err == nil {
			if out.message == "" {
				out.message = s
			}
			return out
		}

		var nested struct {
			Code    string                     `json:"code"`
			Message string                     `json:"message"`
			Details map[string]json.RawMessage `json:"details"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil {
			if nested.Code != "" {
				out.code = nested.Code
			}
			if nested.Message != "" {
				out.message = nested.Message
			}
			out.fields = mergeFields(out.fields, nested.Details)
		}
	}
	return out
}

func mergeFields(dst map[string][]string, src map[string]json.RawMessage) map[string][]string {
	for field, raw := range src {
		msgs := decodeMessages(raw)
		if len(msgs) == 0 {
			continue
		}
		if dst == nil {
			dst = make(map[string][]string)
		}
		dst[field] = append(dst[field], msgs...)
	}
	return dst
}

// decodeMessages accepts a string or a list of strings.
func decodeMessages(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

// FieldSummary renders field errors as "a: x; b: y" in field order.
func (e *Error) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
