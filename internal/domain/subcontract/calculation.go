package subcontract

import (
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// NetPayableInput is the input of the net payable calculation
type NetPayableInput struct {
	ContractTotal       decimal.Decimal
	RetentionPercentage decimal.Decimal
	AmountCertified     decimal.Decimal
	PreviousCertified   decimal.Decimal
}

// NetPayableResult is the derived payment breakdown of one certificate
type NetPayableResult struct {
	AmountCertified     decimal.Decimal `json:"amount_certified"`
	RetentionAmount     decimal.Decimal `json:"retention_amount"`
	NetPayable          decimal.Decimal `json:"net_payable"`
	CumulativeCertified decimal.Decimal `json:"cumulative_certified"`
	RemainingBalance    decimal.Decimal `json:"remaining_balance"`
	PercentageComplete  decimal.Decimal `json:"percentage_complete"`
}

// CalculateNetPayable computes retention, net payable and cumulative figures.
// It is pure and never rounds; netPayable + retention always equals the
// certified amount.
func CalculateNetPayable(in NetPayableInput) NetPayableResult {
	retention := valueobject.PercentOf(in.AmountCertified, in.RetentionPercentage)
	cumulative := in.PreviousCertified.Add(in.AmountCertified)

	return NetPayableResult{
		AmountCertified:     in.AmountCertified,
		RetentionAmount:     retention,
		NetPayable:          in.AmountCertified.Sub(retention),
		CumulativeCertified: cumulative,
		RemainingBalance:    in.ContractTotal.Sub(cumulative),
		PercentageComplete:  valueobject.RatioPercent(cumulative, in.ContractTotal),
	}
}
