package subcontract

import (
	"testing"
	"time"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validTerms() Terms {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return Terms{
		ContractNumber:      "SC-2026-001",
		ProjectID:           uuid.New(),
		SubcontractorID:     uuid.New(),
		SubcontractorName:   "Acme Electrical",
		Title:               "Electrical rough-in",
		TotalAmount:         dec("100000"),
		RetentionPercentage: dec("10"),
		StartDate:           start,
		EndDate:             start.AddDate(0, 6, 0),
		Schedule: []ScheduleLine{
			{Description: "Mobilisation and rough-in", Percentage: dec("50")},
			{Description: "Fixtures", Percentage: dec("30")},
			{Description: "Commissioning", Percentage: dec("20")},
		},
	}
}

func newActiveSubcontract(t *testing.T) *Subcontract {
	t.Helper()
	sc, err := NewSubcontract(validTerms())
	require.NoError(t, err)
	require.NoError(t, sc.Approve(shared.Actor{ID: uuid.New(), Name: "pm"}))
	return sc
}

func TestNewSubcontract(t *testing.T) {
	sc, err := NewSubcontract(validTerms())
	require.NoError(t, err)

	assert.Equal(t, SubcontractStatusDraft, sc.Status)
	assert.True(t, sc.TotalCertified.IsZero())
	assert.True(t, sc.TotalPaid.IsZero())
	assert.True(t, sc.TotalRetained.IsZero())
	assert.True(t, sc.RemainingBalance.Equal(dec("100000")))
	require.Len(t, sc.PaymentSchedule, 3)
	assert.True(t, sc.PaymentSchedule[0].Amount.Equal(dec("50000")))
	assert.True(t, sc.PaymentSchedule[1].Amount.Equal(dec("30000")))
	assert.True(t, sc.PaymentSchedule[2].Amount.Equal(dec("20000")))
	for i, item := range sc.PaymentSchedule {
		assert.Equal(t, i+1, item.Sequence)
		assert.Equal(t, ScheduleItemStatusPending, item.Status)
	}
	assert.Len(t, sc.GetDomainEvents(), 1)
}

func TestTerms_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Terms)
		message string
	}{
		{"zero total", func(tr *Terms) { tr.TotalAmount = decimal.Zero }, "Total amount must be greater than zero"},
		{"negative retention", func(tr *Terms) { tr.RetentionPercentage = dec("-1") }, "Retention percentage must be between 0 and 100"},
		{"retention above 100", func(tr *Terms) { tr.RetentionPercentage = dec("100.5") }, "Retention percentage must be between 0 and 100"},
		{"start after end", func(tr *Terms) { tr.EndDate = tr.StartDate.AddDate(0, 0, -1) }, "Start date must be on or before end date"},
		{"empty schedule", func(tr *Terms) { tr.Schedule = nil }, "Payment schedule must contain at least one item"},
		{"schedule below 100", func(tr *Terms) { tr.Schedule[2].Percentage = dec("19.98") }, "Payment schedule percentages must sum to 100%"},
		{"schedule above 100", func(tr *Terms) { tr.Schedule[2].Percentage = dec("20.02") }, "Payment schedule percentages must sum to 100%"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			terms := validTerms()
			tc.mutate(&terms)

			_, err := NewSubcontract(terms)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestTerms_ScheduleTolerance(t *testing.T) {
	terms := validTerms()
	terms.Schedule[2].Percentage = dec("19.99")
	_, err := NewSubcontract(terms)
	assert.NoError(t, err)

	terms = validTerms()
	terms.Schedule[2].Percentage = dec("20.01")
	_, err = NewSubcontract(terms)
	assert.NoError(t, err)
}

func TestSubcontract_Approve(t *testing.T) {
	sc, err := NewSubcontract(validTerms())
	require.NoError(t, err)

	approver := shared.Actor{ID: uuid.New(), Name: "pm"}
	require.NoError(t, sc.Approve(approver))
	assert.Equal(t, SubcontractStatusActive, sc.Status)
	require.NotNil(t, sc.ApprovedBy)
	assert.Equal(t, approver.ID, *sc.ApprovedBy)
	assert.NotNil(t, sc.ApprovedAt)

	version := sc.GetVersion()
	err = sc.Approve(approver)
	require.Error(t, err)
	assert.Equal(t, "Only draft subcontracts can be approved", err.Error())
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, SubcontractStatusActive, sc.Status)
	assert.Equal(t, version, sc.GetVersion())
}

func TestSubcontract_CompleteAndCancel(t *testing.T) {
	draft, err := NewSubcontract(validTerms())
	require.NoError(t, err)
	assert.Error(t, draft.Complete())

	sc := newActiveSubcontract(t)
	require.NoError(t, sc.Complete())
	assert.Equal(t, SubcontractStatusCompleted, sc.Status)
	assert.Error(t, sc.Cancel(shared.SystemActor, "late"))

	other := newActiveSubcontract(t)
	assert.True(t, shared.IsValidation(other.Cancel(shared.SystemActor, " ")))
	require.NoError(t, other.Cancel(shared.SystemActor, "scope removed"))
	assert.Equal(t, SubcontractStatusCancelled, other.Status)
	assert.Equal(t, "scope removed", other.CancellationReason)
}

func TestSubcontract_CancelRequiresNoPayments(t *testing.T) {
	sc := newActiveSubcontract(t)
	require.NoError(t, sc.UpdateScheduleItem(sc.PaymentSchedule[0].ID, ScheduleItemStatusPaid, time.Time{}))

	err := sc.Cancel(shared.SystemActor, "dispute")
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
	assert.False(t, sc.CanDelete())
}

func TestSubcontract_UpdateScheduleItemRecalculates(t *testing.T) {
	sc := newActiveSubcontract(t)
	first := sc.PaymentSchedule[0].ID
	second := sc.PaymentSchedule[1].ID

	require.NoError(t, sc.UpdateScheduleItem(first, ScheduleItemStatusCertified, time.Time{}))
	assert.True(t, sc.TotalCertified.Equal(dec("50000")))
	assert.True(t, sc.TotalRetained.Equal(dec("5000")))
	assert.True(t, sc.RemainingBalance.Equal(dec("50000")))
	assert.True(t, sc.TotalPaid.IsZero())

	require.NoError(t, sc.UpdateScheduleItem(first, ScheduleItemStatusPaid, time.Time{}))
	require.NoError(t, sc.UpdateScheduleItem(second, ScheduleItemStatusCertified, time.Time{}))
	assert.True(t, sc.TotalCertified.Equal(dec("80000")))
	assert.True(t, sc.TotalPaid.Equal(dec("50000")))
	assert.True(t, sc.RemainingBalance.Equal(dec("20000")))

	// un-certify
	require.NoError(t, sc.UpdateScheduleItem(second, ScheduleItemStatusPending, time.Time{}))
	assert.True(t, sc.TotalCertified.Equal(dec("50000")))
	assert.Nil(t, sc.PaymentSchedule[1].CertifiedDate)

	err := sc.UpdateScheduleItem(first, ScheduleItemStatusPending, time.Time{})
	assert.True(t, shared.IsInvalidState(err))

	err = sc.UpdateScheduleItem(uuid.New(), ScheduleItemStatusCertified, time.Time{})
	assert.True(t, shared.IsNotFound(err))
}

func TestSubcontract_UpdateScheduleItemRequiresActive(t *testing.T) {
	sc, err := NewSubcontract(validTerms())
	require.NoError(t, err)

	err = sc.UpdateScheduleItem(sc.PaymentSchedule[0].ID, ScheduleItemStatusCertified, time.Time{})
	assert.True(t, shared.IsInvalidState(err))
}

func TestSubcontract_ReleaseRetention(t *testing.T) {
	sc := newActiveSubcontract(t)
	assert.Error(t, sc.ReleaseRetention())

	require.NoError(t, sc.Complete())
	require.NoError(t, sc.ReleaseRetention())
	assert.True(t, sc.RetentionReleased)
	assert.Error(t, sc.ReleaseRetention())
}

func TestSubcontract_Redraft(t *testing.T) {
	sc, err := NewSubcontract(validTerms())
	require.NoError(t, err)

	terms := validTerms()
	terms.ProjectID = sc.ProjectID
	terms.TotalAmount = dec("200000")
	require.NoError(t, sc.Redraft(terms))
	assert.True(t, sc.PaymentSchedule[0].Amount.Equal(dec("100000")))
	assert.True(t, sc.RemainingBalance.Equal(dec("200000")))

	require.NoError(t, sc.Approve(shared.SystemActor))
	assert.True(t, shared.IsInvalidState(sc.Redraft(terms)))
}

func TestSubcontract_Documents(t *testing.T) {
	sc := newActiveSubcontract(t)

	require.NoError(t, sc.AttachDocument(Document{Name: "contract.pdf", MimeType: "application/pdf"}))
	require.Len(t, sc.Documents, 1)
	assert.NotEqual(t, uuid.Nil, sc.Documents[0].ID)

	assert.True(t, shared.IsValidation(sc.AttachDocument(Document{})))
	assert.True(t, shared.IsNotFound(sc.DetachDocument(uuid.New())))
	require.NoError(t, sc.DetachDocument(sc.Documents[0].ID))
	assert.Empty(t, sc.Documents)
}

func TestSubcontract_CloneIsDeep(t *testing.T) {
	sc := newActiveSubcontract(t)
	cp := sc.Clone()

	cp.PaymentSchedule[0].Status = ScheduleItemStatusPaid
	cp.CostCodeIDs = append(cp.CostCodeIDs, uuid.New())

	assert.Equal(t, ScheduleItemStatusPending, sc.PaymentSchedule[0].Status)
	assert.Empty(t, sc.CostCodeIDs)
}

func TestNumbering(t *testing.T) {
	assert.Equal(t, "SC-2026-007", FormatContractNumber(2026, 7))
	assert.Equal(t, "SC-2026-", ContractNumberPrefix(2026))
	assert.Equal(t, "SC-2026-007-PC03", FormatCertificateNumber("SC-2026-007", 3))
}
