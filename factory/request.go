/*
Package factory provides JSON to Go request conversion.

PURPOSE:
  Converts raw structured-request payloads into kpi.Request values. The
  payloads are produced upstream by a natural-language-to-request
  translator (a language model), which makes them well-formed JSON of
  unreliable shape: filter values may be empty strings or a literal "...",
  list-valued filters may arrive as a single string, time_range may be
  null or half-filled. The factory absorbs all of that so the engine only
  ever sees sanitized requests.

JSON SCHEMA:
  {
    "metric": "sku_demand",
    "filters": {
      "department": "Inflight Services",
      "sku": "...",
      "months": ["2025-09", "2025-12"]
    },
    "group_by": "gender",
    "time_range": {"from": "2025-09", "to": "2026-03"}
  }

KEY FEATURES:
  - Tolerates string-or-list values for "months"
  - Drops placeholder ("...") and empty filter values
  - Treats a half-filled time_range as absent
  - Rejects only structurally broken payloads (bad JSON, missing metric)

USAGE:
  f := factory.NewRequestFactory()
  req, err := f.Parse(body)

SEE ALSO:
  - kpi/predicate.go: The sanitizing rules themselves
  - api/handlers.go: The HTTP consumer
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/uniform-kpi/kpi"
)

// ErrMissingMetric is returned when the payload names no metric.
var ErrMissingMetric = errors.New("request has no metric")

// RequestFactory converts raw payloads into sanitized kpi.Requests.
type RequestFactory struct{}

func NewRequestFactory() *RequestFactory {
	return &RequestFactory{}
}

// requestJSON is the tolerant wire shape. Filters is a free-form map so a
// producer inventing value shapes cannot fail the decode.
type requestJSON struct {
	Metric    string         `json:"metric"`
	Filters   map[string]any `json:"filters"`
	GroupBy   string         `json:"group_by"`
	TimeRange *kpi.TimeRange `json:"time_range"`
}

// Parse converts a raw payload into a sanitized request.
func (f *RequestFactory) Parse(raw []byte) (kpi.Request, error) {
	var payload requestJSON
	if err := json.Unmarshal(raw, &payload); err != nil {
		return kpi.Request{}, fmt.Errorf("invalid request payload: %w", err)
	}

	metric := strings.TrimSpace(payload.Metric)
	if metric == "" {
		return kpi.Request{}, ErrMissingMetric
	}

	req := kpi.Request{
		Metric:  metric,
		GroupBy: strings.TrimSpace(payload.GroupBy),
	}

	req.Filters = kpi.Filters{
		Department: stringValue(payload.Filters["department"]),
		Gender:     stringValue(payload.Filters["gender"]),
		Location:   stringValue(payload.Filters["location"]),
		Status:     stringValue(payload.Filters["status"]),
		SKU:        stringValue(payload.Filters["sku"]),
		Months:     listValue(payload.Filters["months"]),
	}.Sanitize()

	if tr := payload.TimeRange; tr != nil &&
		strings.TrimSpace(tr.From) != "" && strings.TrimSpace(tr.To) != "" {
		req.TimeRange = &kpi.TimeRange{
			From: strings.TrimSpace(tr.From),
			To:   strings.TrimSpace(tr.To),
		}
	}

	return req, nil
}

// stringValue coerces a free-form filter value to a string; non-strings
// (numbers, objects) are dropped rather than rejected.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// listValue coerces a free-form value to a string list, accepting both a
// JSON array and a bare string.
func listValue(v any) []string {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
