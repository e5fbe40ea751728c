package content

import (
	"fmt"
	"strconv"
	"strings"
)

// cardRefPrefix is the convention Metabase uses for a query whose source is
// another saved question rather than a raw table: the source-table field
// holds "card__<id>" instead of a numeric table id.
const cardRefPrefix = "card__"

// sourceCardRef walks a dataset query for a saved-question reference. The
// reference may sit at the top query clause or inside nested source-query
// clauses. Only the recognized source-table field is inspected; unrelated
// integer fields are never treated as references.
func sourceCardRef(q map[string]any) (int64, bool, error) {
	clause, ok := q["query"].(map[string]any)
	if !ok {
		return 0, false, nil
	}
	for clause != nil {
		if st, present := clause["source-table"]; present {
			if ref, isRef := st.(string); isRef && strings.HasPrefix(ref, cardRefPrefix) {
				id, err := parseCardRef(ref)
				if err != nil {
					return 0, false, err
				}
				return id, true, nil
			}
		}
		clause, _ = clause["source-query"].(map[string]any)
	}
	return 0, false, nil
}

// rewriteSourceCardRef translates every card__ reference in place through
// mapping. The caller passes a private copy of the query.
func rewriteSourceCardRef(q map[string]any, mapping map[int64]int64) error {
	clause, ok := q["query"].(map[string]any)
	if !ok {
		return nil
	}
	for clause != nil {
		if st, present := clause["source-table"]; present {
			if ref, isRef := st.(string); isRef && strings.HasPrefix(ref, cardRefPrefix) {
				id, err := parseCardRef(ref)
				if err != nil {
					return err
				}
				target, known := mapping[id]
				if !known {
					return fmt.Errorf("no target id recorded for referenced card %d", id)
				}
				clause["source-table"] = fmt.Sprintf("%s%d", cardRefPrefix, target)
			}
		}
		clause, _ = clause["source-query"].(map[string]any)
	}
	return nil
}

func parseCardRef(ref string) (int64, error) {
	raw := strings.TrimPrefix(ref, cardRefPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed saved-question reference %q", ref)
	}
	return id, nil
}
