package service_test

import (
	"context"

	"github.com/agrimed/agrimed-backend/internal/distribution/domain"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	apperrors "github.com/agrimed/agrimed-backend/pkg/errors"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New("test", "test")
}

// fakeStore is an in-memory SubmissionStore.
type fakeStore struct {
	submissions map[string]*domain.Submission
	usageRows   []domain.UsageRow

	getErr   error
	applyErr error

	applied []service.ApplyDecisionParams
	audits  []*domain.AuditEntry
}

func newFakeStore(subs ...*domain.Submission) *fakeStore {
	s := &fakeStore{submissions: make(map[string]*domain.Submission)}
	for _, sub := range subs {
		s.submissions[sub.ID] = sub
	}
	return s
}

func (s *fakeStore) GetSubmissionWithItems(ctx context.Context, id string) (*domain.Submission, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	sub, ok := s.submissions[id]
	if !ok {
		return nil, apperrors.NotFound("submission")
	}
	return sub, nil
}

func (s *fakeStore) ApplyDecision(ctx context.Context, params service.ApplyDecisionParams) (*domain.Submission, error) {
	s.applied = append(s.applied, params)
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	sub := s.submissions[params.SubmissionID]
	if sub.Status != params.ExpectedStatus {
		return nil, apperrors.Conflict("submission status changed during review")
	}
	// Like the real repository, return a fresh submission rather than
	// mutating the pointer the caller already holds.
	updated := *sub
	updated.Items = append([]domain.SubmissionItem(nil), sub.Items...)
	updated.Status = params.NewStatus
	for _, ai := range params.ApprovedItems {
		if item := updated.Item(ai.ItemID); item != nil {
			item.ApprovedQuantity = ai.ApprovedQuantity
		}
	}
	s.submissions[params.SubmissionID] = &updated
	return &updated, nil
}

func (s *fakeStore) AppendAuditLog(ctx context.Context, entry *domain.AuditEntry) error {
	s.audits = append(s.audits, entry)
	return nil
}

func (s *fakeStore) UsageRows(ctx context.Context) ([]domain.UsageRow, error) {
	return s.usageRows, nil
}

// fakeCatalog is an in-memory CatalogReader.
type fakeCatalog struct {
	medicines map[string]*domain.Medicine
	byPest    []*domain.Medicine

	findErr  error
	listErr  error
	stockErr error
}

func newFakeCatalog(medicines ...*domain.Medicine) *fakeCatalog {
	c := &fakeCatalog{medicines: make(map[string]*domain.Medicine)}
	for _, m := range medicines {
		c.medicines[m.ID] = m
	}
	return c
}

func (c *fakeCatalog) FindMedicine(ctx context.Context, id string) (*domain.Medicine, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	m, ok := c.medicines[id]
	if !ok {
		return nil, apperrors.NotFound("medicine")
	}
	return m, nil
}

func (c *fakeCatalog) FindMedicinesByPestTargets(ctx context.Context, pestTargets []string, excludeID string, limit int) ([]*domain.Medicine, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]*domain.Medicine, 0, len(c.byPest))
	for _, m := range c.byPest {
		if m.ID == excludeID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *fakeCatalog) AvailableStock(ctx context.Context, medicineID string) (decimal.Decimal, error) {
	if c.stockErr != nil {
		return decimal.Zero, c.stockErr
	}
	if m, ok := c.medicines[medicineID]; ok {
		return m.AvailableStock(), nil
	}
	return decimal.Zero, nil
}

// fakeNotifier records shortage notifications.
type fakeNotifier struct {
	shortages []string // medicine IDs
}

func (n *fakeNotifier) StockShortageDetected(ctx context.Context, submissionID string, rec *domain.MedicineRecommendation, requested decimal.Decimal) {
	n.shortages = append(n.shortages, rec.MedicineID)
}

// fakeHook records committed decisions.
type fakeHook struct {
	committed []*domain.ApprovalResult
}

func (h *fakeHook) DecisionCommitted(ctx context.Context, decision *domain.ApprovalDecision, result *domain.ApprovalResult) {
	h.committed = append(h.committed, result)
}

// allowAll grants approval permission to everyone.
type allowAll struct{}

func (allowAll) HasApprovalPermission(ctx context.Context, userID string) bool { return true }

// denyAll denies approval permission to everyone.
type denyAll struct{}

func (denyAll) HasApprovalPermission(ctx context.Context, userID string) bool { return false }
