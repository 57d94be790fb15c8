package migration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/capability-identity/internal/core/domain"
	"github.com/arklim/capability-identity/internal/core/port"
)

// Step is a named, idempotent-by-ledger setup unit. Apply runs at most
// once per deployment: once the name lands in the ledger the step is
// permanently skipped.
type Step struct {
	Name  string
	Apply func(ctx context.Context) error
}

// Ledger runs registered steps in order, skipping those already recorded
// as applied. The first failing step aborts the run; its name is not
// recorded, so the next run retries it.
type Ledger struct {
	store  port.LedgerStore
	logger *zap.Logger
	steps  []Step
	now    func() time.Time
}

// NewLedger constructs a ledger over the provided store.
func NewLedger(store port.LedgerStore, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Register appends a step to the run order. Registration order is
// execution order.
func (l *Ledger) Register(step Step) {
	l.steps = append(l.steps, step)
}

// Run executes every registered step that is not yet in the ledger and
// returns how many steps were applied this run. A step is recorded only
// after its Apply returns nil; recording failure also aborts the run so
// the ledger never claims more than what completed.
func (l *Ledger) Run(ctx context.Context) (int, error) {
	records, err := l.store.ListApplied(ctx)
	if err != nil {
		return 0, fmt.Errorf("list applied steps: %w", err)
	}

	applied := make(map[string]struct{}, len(records))
	for _, record := range records {
		applied[record.Name] = struct{}{}
	}

	count := 0
	for _, step := range l.steps {
		if _, ok := applied[step.Name]; ok {
			l.logger.Debug("setup step already applied", zap.String("step", step.Name))
			continue
		}

		l.logger.Info("applying setup step", zap.String("step", step.Name))

		if err := step.Apply(ctx); err != nil {
			return count, fmt.Errorf("apply step %s: %w", step.Name, err)
		}

		record := domain.MigrationRecord{
			Name:      step.Name,
			AppliedAt: l.now().UTC(),
		}
		if err := l.store.Append(ctx, record); err != nil {
			return count, fmt.Errorf("record step %s: %w", step.Name, err)
		}

		count++
		l.logger.Info("setup step applied", zap.String("step", step.Name))
	}

	return count, nil
}
