package contract

import "github.com/shopspring/decimal"

const rateScale = 2

type Summary struct {
	TotalReceivable decimal.Decimal
	TotalDisbursed  decimal.Decimal
	ContractCount   int64
	AverageRate     decimal.Decimal
}

// IsZero reports whether every aggregate is zero. It cannot tell an empty
// selection apart from contracts whose amounts are all exactly zero.
func (s Summary) IsZero() bool {
	return s.TotalReceivable.IsZero() &&
		s.TotalDisbursed.IsZero() &&
		s.ContractCount == 0 &&
		s.AverageRate.IsZero()
}

// Aggregate computes the summary over an already filtered contract set.
// The receivable total is a flat sum over every installment of every contract.
func Aggregate(contracts []Contract) Summary {
	s := Summary{
		TotalReceivable: decimal.Zero,
		TotalDisbursed:  decimal.Zero,
		AverageRate:     decimal.Zero,
	}
	rateSum := decimal.Zero

	for _, c := range contracts {
		s.ContractCount++
		s.TotalDisbursed = s.TotalDisbursed.Add(c.DisbursedAmount)
		rateSum = rateSum.Add(c.Rate)
		for _, inst := range c.Installments {
			s.TotalReceivable = s.TotalReceivable.Add(inst.Amount)
		}
	}

	if s.ContractCount > 0 {
		s.AverageRate = rateSum.DivRound(decimal.NewFromInt(s.ContractCount), rateScale)
	}
	return s
}
