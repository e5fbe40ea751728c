package restore

import "sort"

// Kind distinguishes the two content types an identity mapping can cover.
type Kind string

const (
	KindCard      Kind = "card"
	KindDashboard Kind = "dashboard"
)

// IdentityMap records, for one restore run, which target id each archived
// item resolved to. It is built fresh every run and thrown away at the end;
// across runs identity is re-derived from name matching.
type IdentityMap struct {
	m map[Kind]map[int64]int64
}

// NewIdentityMap returns an empty map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{m: map[Kind]map[int64]int64{}}
}

// Record stores the target id resolved for an archived item.
func (im *IdentityMap) Record(kind Kind, sourceID, targetID int64) {
	if im.m[kind] == nil {
		im.m[kind] = map[int64]int64{}
	}
	im.m[kind][sourceID] = targetID
}

// Resolve looks up the target id for an archived item.
func (im *IdentityMap) Resolve(kind Kind, sourceID int64) (int64, bool) {
	id, ok := im.m[kind][sourceID]
	return id, ok
}

// CardMapping returns the source-to-target mapping for cards, the form the
// reference rewriter consumes.
func (im *IdentityMap) CardMapping() map[int64]int64 {
	return im.m[KindCard]
}

// Action is the reconciler's verdict for one item.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
)

func (a Action) String() string {
	if a == ActionCreate {
		return "create"
	}
	return "update"
}

// ExistingItem is a target-instance item the reconciler can match against.
type ExistingItem struct {
	ID   int64
	Name string
}

// Decision is the outcome of reconciling one archived item against the
// target instance.
type Decision struct {
	Action   Action
	TargetID int64 // set when Action is ActionUpdate
	// Ambiguous is set when several existing items share the name. The
	// lowest target id wins; a duplicate is never created. Name matching
	// has no stable cross-instance key, so this is surfaced rather than
	// silently resolved.
	Ambiguous bool
}

// Reconcile decides create-or-update for an archived item by exact,
// case-sensitive name match against existing target content.
func Reconcile(name string, existing []ExistingItem) Decision {
	var matches []int64
	for _, item := range existing {
		if item.Name == name {
			matches = append(matches, item.ID)
		}
	}
	if len(matches) == 0 {
		return Decision{Action: ActionCreate}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })
	return Decision{Action: ActionUpdate, TargetID: matches[0], Ambiguous: len(matches) > 1}
}
