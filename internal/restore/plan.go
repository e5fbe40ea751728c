package restore

import (
	"sort"

	"github.com/metasync-tools/metasync/internal/archive"
	"github.com/metasync-tools/metasync/internal/content"
)

// Plan is the restoration order computed from an archive: cards sorted so
// that every card appears after the card it is built on, then dashboards in
// archive order (dashboards cannot reference each other). A plan is computed
// once per run and never modified.
type Plan struct {
	CardOrder  []int64
	Dashboards []content.Dashboard
}

// NewPlan topologically sorts the archive's cards over their saved-question
// references. Independent cards are ordered by ascending source id so that
// repeated runs restore in the same order.
func NewPlan(a *archive.Archive) (*Plan, error) {
	byID := make(map[int64]content.Card, len(a.Cards))
	ids := make([]int64, 0, len(a.Cards))
	for _, c := range a.Cards {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Edge dep → dependent for every card built on another card.
	dependents := make(map[int64][]int64)
	indegree := make(map[int64]int, len(ids))
	for _, id := range ids {
		indegree[id] = 0
	}
	for _, id := range ids {
		c := byID[id]
		dep, ok, err := c.SourceCardRef()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, present := byID[dep]; !present {
			return nil, &DanglingReferenceError{CardID: c.ID, CardName: c.Name, MissingID: dep}
		}
		dependents[dep] = append(dependents[dep], id)
		indegree[id]++
	}

	// Kahn's algorithm. ready stays sorted because ids is sorted and newly
	// released nodes are re-sorted before the next pick.
	var ready []int64
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	order := make([]int64, 0, len(ids))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(ids) {
		return nil, &CyclicDependencyError{Members: findCycle(byID, ids, indegree)}
	}

	return &Plan{CardOrder: order, Dashboards: a.Dashboards}, nil
}

// findCycle walks the reference chain from an unsorted node until it meets
// itself. Each card has at most one saved-question reference, so the chain
// from any node left with nonzero in-degree must run into the cycle.
func findCycle(byID map[int64]content.Card, ids []int64, indegree map[int64]int) []int64 {
	var start int64
	for _, id := range ids {
		if indegree[id] > 0 {
			start = id
			break
		}
	}
	seen := make(map[int64]int)
	var chain []int64
	cur := start
	for {
		if at, visited := seen[cur]; visited {
			cycle := append([]int64(nil), chain[at:]...)
			sort.Slice(cycle, func(i, j int) bool { return cycle[i] < cycle[j] })
			return cycle
		}
		seen[cur] = len(chain)
		chain = append(chain, cur)
		next, _, _ := byID[cur].SourceCardRef()
		cur = next
	}
}
