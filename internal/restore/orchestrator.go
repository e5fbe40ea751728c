// Package restore implements the restore resolution engine: dependency
// ordering of archived cards, create-or-update reconciliation against the
// target instance, and the multi-pass orchestration that rebuilds cards and
// dashboard linkages with translated identifiers.
package restore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/metasync-tools/metasync/internal/archive"
	"github.com/metasync-tools/metasync/internal/content"
	"github.com/metasync-tools/metasync/internal/metabase"
)

// Gateway is the slice of the instance API the orchestrator consumes. The
// production implementation is metabase.Client; tests use a fake.
type Gateway interface {
	ListCards(ctx context.Context) ([]content.Card, error)
	ListDashboards(ctx context.Context) ([]content.Dashboard, error)
	CreateCard(ctx context.Context, card content.Card) (int64, error)
	UpdateCard(ctx context.Context, id int64, card content.Card) error
	CreateDashboard(ctx context.Context, name, description string) (int64, error)
	UpdateDashboardCards(ctx context.Context, id int64, cards []metabase.DashcardPayload) error
}

// State tracks the orchestrator through its phases.
type State int

const (
	StateInit State = iota
	StateQueriesPending
	StateQueriesDone
	StateDashboardsPending
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateQueriesPending:
		return "cards pending"
	case StateQueriesDone:
		return "cards done"
	case StateDashboardsPending:
		return "dashboards pending"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Progress is called as each item is restored, for terminal feedback.
type Progress func(kind Kind, name string, action Action)

// Options configures one restore run.
type Options struct {
	// DatabaseID is the target instance's data source every restored card
	// is pointed at. Chosen by the caller (flag or interactive prompt).
	DatabaseID int64
	Logger     *zap.Logger
	Progress   Progress
}

// Orchestrator drives one restore run. Runs are sequential: card order must
// respect dependencies and the identity map is read in the same pass it is
// written, so there is nothing to gain from concurrency at this scale.
type Orchestrator struct {
	gw       Gateway
	db       int64
	logger   *zap.Logger
	progress Progress
	state    State
}

// NewOrchestrator builds an orchestrator over the given gateway.
func NewOrchestrator(gw Gateway, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(Kind, string, Action) {}
	}
	return &Orchestrator{
		gw:       gw,
		db:       opts.DatabaseID,
		logger:   logger,
		progress: progress,
		state:    StateInit,
	}
}

// State returns the phase the last run reached.
func (o *Orchestrator) State() State {
	return o.state
}

// Run restores the archive onto the target instance. Card failures abort the
// run: a half-migrated card set would leave dependents and dashboards
// pointing at nothing. Dashboard failures are collected in the report and do
// not stop the remaining dashboards, which are independent of each other.
//
// Running the same archive twice against the same target converges: the
// second run resolves every item to an update and creates nothing.
func (o *Orchestrator) Run(ctx context.Context, a *archive.Archive) (*Report, error) {
	o.state = StateInit
	report := &Report{}

	plan, err := NewPlan(a)
	if err != nil {
		return o.fail(report, err)
	}

	existingCards, err := o.gw.ListCards(ctx)
	if err != nil {
		return o.fail(report, fmt.Errorf("failed to list existing cards: %w", err))
	}

	o.state = StateQueriesPending
	idmap := NewIdentityMap()
	if err := o.restoreCards(ctx, a, plan, cardItems(existingCards), idmap, report); err != nil {
		return o.fail(report, err)
	}
	o.state = StateQueriesDone

	existingDashes, err := o.gw.ListDashboards(ctx)
	if err != nil {
		return o.fail(report, fmt.Errorf("failed to list existing dashboards: %w", err))
	}

	o.state = StateDashboardsPending
	for _, d := range plan.Dashboards {
		if err := ctx.Err(); err != nil {
			return o.fail(report, err)
		}
		if err := o.restoreDashboard(ctx, d, dashboardItems(existingDashes), idmap, report); err != nil {
			o.logger.Warn("dashboard restore failed",
				zap.String("name", d.Name), zap.Int64("source_id", d.ID), zap.Error(err))
			report.DashboardFailures = append(report.DashboardFailures, DashboardFailure{
				ID: d.ID, Name: d.Name, Err: err,
			})
		}
	}

	o.state = StateComplete
	return report, nil
}

func (o *Orchestrator) fail(report *Report, err error) (*Report, error) {
	o.state = StateFailed
	return report, err
}

func (o *Orchestrator) restoreCards(ctx context.Context, a *archive.Archive, plan *Plan, existing []ExistingItem, idmap *IdentityMap, report *Report) error {
	for _, sourceID := range plan.CardOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		card, ok := a.Card(sourceID)
		if !ok {
			return fmt.Errorf("plan references card %d missing from archive", sourceID)
		}

		card = card.WithDatabaseID(o.db)
		card, err := card.RewriteSourceCardRef(idmap.CardMapping())
		if err != nil {
			return err
		}

		dec := Reconcile(card.Name, existing)
		if dec.Ambiguous {
			report.Ambiguous = append(report.Ambiguous, AmbiguousMatch{
				Kind: KindCard, Name: card.Name, TargetID: dec.TargetID,
			})
		}

		targetID := dec.TargetID
		switch dec.Action {
		case ActionCreate:
			targetID, err = o.gw.CreateCard(ctx, card)
			if err != nil {
				return fmt.Errorf("failed to create card %q (id %d): %w", card.Name, sourceID, err)
			}
			report.CardsCreated++
		case ActionUpdate:
			if err := o.gw.UpdateCard(ctx, targetID, card); err != nil {
				return fmt.Errorf("failed to update card %q (id %d): %w", card.Name, sourceID, err)
			}
			report.CardsUpdated++
		}

		idmap.Record(KindCard, sourceID, targetID)
		o.progress(KindCard, card.Name, dec.Action)
		o.logger.Debug("card restored",
			zap.String("name", card.Name),
			zap.Int64("source_id", sourceID),
			zap.Int64("target_id", targetID),
			zap.Stringer("action", dec.Action))
	}
	return nil
}

func (o *Orchestrator) restoreDashboard(ctx context.Context, d content.Dashboard, existing []ExistingItem, idmap *IdentityMap, report *Report) error {
	dec := Reconcile(d.Name, existing)
	if dec.Ambiguous {
		report.Ambiguous = append(report.Ambiguous, AmbiguousMatch{
			Kind: KindDashboard, Name: d.Name, TargetID: dec.TargetID,
		})
	}

	targetID := dec.TargetID
	if dec.Action == ActionCreate {
		var err error
		targetID, err = o.gw.CreateDashboard(ctx, d.Name, d.Description)
		if err != nil {
			return fmt.Errorf("failed to create dashboard: %w", err)
		}
		report.DashboardsCreated++
	} else {
		report.DashboardsUpdated++
	}
	idmap.Record(KindDashboard, d.ID, targetID)

	// Full layout replacement: every placement is submitted as new, so no
	// target placement ids are carried over. Merging instead would bring
	// back the placement-id portability problem this tool exists to avoid.
	payload, skipped := EncodeLayout(d.Dashcards, idmap.CardMapping(), nil)
	report.PlacementsSkipped += skipped
	if err := o.gw.UpdateDashboardCards(ctx, targetID, payload); err != nil {
		return fmt.Errorf("failed to update dashboard layout: %w", err)
	}

	o.progress(KindDashboard, d.Name, dec.Action)
	return nil
}

func cardItems(cards []content.Card) []ExistingItem {
	items := make([]ExistingItem, len(cards))
	for i, c := range cards {
		items[i] = ExistingItem{ID: c.ID, Name: c.Name}
	}
	return items
}

func dashboardItems(dashes []content.Dashboard) []ExistingItem {
	items := make([]ExistingItem, len(dashes))
	for i, d := range dashes {
		items[i] = ExistingItem{ID: d.ID, Name: d.Name}
	}
	return items
}
