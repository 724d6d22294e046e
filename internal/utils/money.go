package utils

import "math"

// ProfitSplit is the three-way apportionment of one period's net profit.
// Amounts are minor units and always sum to NetProfit exactly.
type ProfitSplit struct {
	NetProfit     int64
	PlatformFee   int64
	InvestorShare int64
	OwnerShare    int64
}

// SplitProfit apportions a period's result between platform, investor and
// owner. The platform fee is taken off net profit first, then the remainder
// splits by the investor's equity percentage with the owner absorbing the
// rounding remainder. A negative net profit is a loss period: the fee is
// zero and the negative amount splits by the same percentages.
func SplitProfit(totalRevenue, manufacturingCost, otherCosts int64, investorPct, platformFeePct float64) ProfitSplit {
	net := totalRevenue - manufacturingCost - otherCosts

	var fee int64
	if net > 0 && totalRevenue > 0 {
		fee = roundPct(net, platformFeePct)
	}

	distributable := net - fee
	investor := roundPct(distributable, investorPct)
	owner := distributable - investor

	return ProfitSplit{
		NetProfit:     net,
		PlatformFee:   fee,
		InvestorShare: investor,
		OwnerShare:    owner,
	}
}

func roundPct(amount int64, pct float64) int64 {
	return int64(math.Round(float64(amount) * pct / 100))
}
