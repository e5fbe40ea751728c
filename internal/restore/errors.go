package restore

import (
	"fmt"
	"strings"
)

// DanglingReferenceError reports a card whose saved-question reference points
// outside the archive. Restoration aborts before any write.
type DanglingReferenceError struct {
	CardID    int64
	CardName  string
	MissingID int64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("card %q (id %d) references card %d which is not in the archive",
		e.CardName, e.CardID, e.MissingID)
}

// CyclicDependencyError reports a reference cycle among archived cards.
// Restoration aborts before any write: partially applying the batch would
// leave dashboards pointing at half-restored cards.
type CyclicDependencyError struct {
	Members []int64
}

func (e *CyclicDependencyError) Error() string {
	ids := make([]string, len(e.Members))
	for i, id := range e.Members {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("dependency cycle among cards %s", strings.Join(ids, ", "))
}
