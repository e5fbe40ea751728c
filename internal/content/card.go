// Package content holds the portable, instance-independent model of Metabase
// content: saved questions (cards) and dashboards, plus the reference
// extraction helpers that find the links between them.
package content

import (
	"encoding/json"
	"fmt"
)

// Card represents a saved question. ID is the identifier on the instance the
// card was fetched from; it is not portable across instances.
type Card struct {
	ID                    int64          `json:"id"`
	Name                  string         `json:"name"`
	Description           string         `json:"description,omitempty"`
	Display               string         `json:"display"`
	DatasetQuery          map[string]any `json:"dataset_query"`
	VisualizationSettings map[string]any `json:"visualization_settings,omitempty"`
}

// ValidationError reports malformed content discovered while extracting or
// validating references. It carries the offending item so users can find it.
type ValidationError struct {
	Kind   string // "card" or "dashboard"
	ID     int64
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid %s %q (id %d): %s", e.Kind, e.Name, e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid %s (id %d): %s", e.Kind, e.ID, e.Reason)
}

// SourceCardRef returns the id of the card this card is built on top of, if
// its query uses another saved question as its source. The second return
// value reports whether such a reference exists.
func (c Card) SourceCardRef() (int64, bool, error) {
	id, ok, err := sourceCardRef(c.DatasetQuery)
	if err != nil {
		return 0, false, &ValidationError{Kind: "card", ID: c.ID, Name: c.Name, Reason: err.Error()}
	}
	return id, ok, nil
}

// DatabaseID returns the data source the card queries, if present.
func (c Card) DatabaseID() (int64, bool) {
	return asInt64(c.DatasetQuery["database"])
}

// WithDatabaseID returns a copy of the card whose query targets the given
// database. The original card is not mutated.
func (c Card) WithDatabaseID(id int64) Card {
	q := cloneMap(c.DatasetQuery)
	if q == nil {
		q = map[string]any{}
	}
	q["database"] = id
	c.DatasetQuery = q
	return c
}

// RewriteSourceCardRef returns a copy of the card with every embedded
// saved-question reference translated through mapping (source id to target
// id). A reference with no mapping entry is an error: callers restore cards
// in dependency order, so the mapping must already contain it.
func (c Card) RewriteSourceCardRef(mapping map[int64]int64) (Card, error) {
	q := cloneMap(c.DatasetQuery)
	if err := rewriteSourceCardRef(q, mapping); err != nil {
		return c, &ValidationError{Kind: "card", ID: c.ID, Name: c.Name, Reason: err.Error()}
	}
	c.DatasetQuery = q
	return c, nil
}

// asInt64 normalizes the numeric types a decoded JSON payload (or a test
// fixture) can carry for an identifier.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
