package inventory

import (
	"context"

	"github.com/chefstock/backend/internal/domain/lot"
	"github.com/chefstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RecallService manages recall cases and their lot links. The blocking effect
// of a recall is derived from the open links at allocation time; the lot's
// RECALLED status is a convenience mirror for read paths, and the link table
// stays the truth.
type RecallService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
}

// NewRecallService creates a new RecallService
func NewRecallService(scope TransactionScope) *RecallService {
	return &RecallService{scope: scope}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *RecallService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// OpenCase opens a new recall case
func (s *RecallService) OpenCase(ctx context.Context, orgID, branchID uuid.UUID, reason string) (*lot.RecallCase, error) {
	var c *lot.RecallCase
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		c, err = lot.NewRecallCase(orgID, branchID, reason)
		if err != nil {
			return err
		}
		return repos.RecallRepo().SaveCase(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CloseCase closes a recall case and reactivates lots whose last open link it
// held. Closing an already closed case fails with the invalid-state error.
func (s *RecallService) CloseCase(ctx context.Context, branchID, caseID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.RecallRepo().FindCaseByID(ctx, caseID)
		if err != nil {
			return err
		}
		if c.BranchID != branchID {
			return shared.ErrLocationMismatch
		}
		if err := c.Close(); err != nil {
			return err
		}
		if err := repos.RecallRepo().SaveCase(ctx, c); err != nil {
			return err
		}

		lotIDs, err := repos.RecallRepo().LotIDsForCase(ctx, caseID)
		if err != nil {
			return err
		}
		for _, lotID := range lotIDs {
			stillLinked, err := repos.RecallRepo().HasOpenLink(ctx, lotID)
			if err != nil {
				return err
			}
			if stillLinked {
				continue
			}
			l, err := repos.LotRepo().FindByIDForUpdate(ctx, lotID)
			if err != nil {
				return err
			}
			if l.Status != lot.StatusRecalled {
				continue
			}
			if err := l.Reactivate(); err != nil {
				return err
			}
			if err := repos.LotRepo().Save(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// LinkLot links a lot to an open recall case, making it unconsumable while
// the case stays open. Linking the same lot twice is a no-op.
func (s *RecallService) LinkLot(ctx context.Context, branchID, caseID, lotID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.RecallRepo().FindCaseByID(ctx, caseID)
		if err != nil {
			return err
		}
		if !c.IsOpen() {
			return shared.ErrInvalidState
		}

		l, err := repos.LotRepo().FindByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if l.BranchID != branchID || c.BranchID != branchID {
			return shared.ErrLocationMismatch
		}

		if err := repos.RecallRepo().Link(ctx, caseID, lotID); err != nil {
			return err
		}

		// Mirror the block onto the lot status when it can hold it; lots in
		// other states remain blocked through the link alone.
		if l.Status == lot.StatusActive {
			if err := l.MarkRecalled(); err != nil {
				return err
			}
			if err := repos.LotRepo().Save(ctx, l); err != nil {
				return err
			}
		}

		s.publishEvents(ctx, lot.NewLotRecallLinkedEvent(l, caseID))
		return nil
	})
}

// UnlinkLot removes a case-lot link. When the last open link disappears the
// lot returns to ACTIVE.
func (s *RecallService) UnlinkLot(ctx context.Context, branchID, caseID, lotID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		l, err := repos.LotRepo().FindByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if l.BranchID != branchID {
			return shared.ErrLocationMismatch
		}

		if err := repos.RecallRepo().Unlink(ctx, caseID, lotID); err != nil {
			return err
		}

		stillLinked, err := repos.RecallRepo().HasOpenLink(ctx, lotID)
		if err != nil {
			return err
		}
		if !stillLinked && l.Status == lot.StatusRecalled {
			if err := l.Reactivate(); err != nil {
				return err
			}
			if err := repos.LotRepo().Save(ctx, l); err != nil {
				return err
			}
		}

		s.publishEvents(ctx, lot.NewLotRecallUnlinkedEvent(l, caseID))
		return nil
	})
}

// publishEvents publishes domain events, best effort
func (s *RecallService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
