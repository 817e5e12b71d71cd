package inventory

import (
	"context"
	"time"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ExpiryService evaluates lot expiry for a branch. Evaluation only ever scans
// ACTIVE lots, so lots already marked EXPIRED fall out of the scan and repeat
// runs are no-ops.
type ExpiryService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewExpiryService creates a new ExpiryService
func NewExpiryService(scope TransactionScope) *ExpiryService {
	return &ExpiryService{
		scope: scope,
		now:   time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ExpiryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source so tests and previews can pin time
func (s *ExpiryService) SetClock(now func() time.Time) {
	s.now = now
}

// EvaluateExpiryResult is the outcome of one expiry evaluation
type EvaluateExpiryResult struct {
	LotsMarkedExpired int           `json:"lots_marked_expired"`
	Lots              []LotResponse `json:"lots"`
	DryRun            bool          `json:"dry_run"`
}

// EvaluateExpiry scans ACTIVE lots whose expiry date has passed and
// transitions each to EXPIRED. With dryRun the same set is computed and
// returned without mutating anything, which backs the preview screen.
func (s *ExpiryService) EvaluateExpiry(ctx context.Context, branchID uuid.UUID, dryRun bool) (*EvaluateExpiryResult, error) {
	result := &EvaluateExpiryResult{
		Lots:   make([]LotResponse, 0),
		DryRun: dryRun,
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		expired, err := repos.LotRepo().FindActiveExpiredBefore(ctx, branchID, s.now())
		if err != nil {
			return err
		}

		for i := range expired {
			result.Lots = append(result.Lots, ToLotResponse(&expired[i]))
		}
		result.LotsMarkedExpired = len(expired)
		if dryRun || len(expired) == 0 {
			return nil
		}

		marked := make([]*lot.InventoryLot, 0, len(expired))
		for i := range expired {
			if err := expired[i].MarkExpired(); err != nil {
				return err
			}
			marked = append(marked, &expired[i])
		}
		if err := repos.LotRepo().SaveAll(ctx, marked); err != nil {
			return err
		}

		for _, l := range marked {
			s.publishEvents(ctx, l.GetDomainEvents())
			l.ClearDomainEvents()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExpiringSoon lists ACTIVE lots that will expire within the window, for the
// kitchen's use-first report
func (s *ExpiryService) ExpiringSoon(ctx context.Context, branchID uuid.UUID, window time.Duration) ([]LotResponse, error) {
	var lots []lot.InventoryLot
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		lots, err = repos.LotRepo().FindExpiringWithin(ctx, branchID, s.now().Add(window))
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]LotResponse, 0, len(lots))
	for i := range lots {
		result = append(result, ToLotResponse(&lots[i]))
	}
	return result, nil
}

// publishEvents publishes domain events, best effort
func (s *ExpiryService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
