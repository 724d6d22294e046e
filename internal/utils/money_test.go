package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitProfit(t *testing.T) {
	t.Run("DocumentedExample", func(t *testing.T) {
		// revenue=10000, mfg=4000, other=1000, investor 30%, fee 5%
		split := SplitProfit(10000, 4000, 1000, 30, 5)

		assert.Equal(t, int64(5000), split.NetProfit)
		assert.Equal(t, int64(250), split.PlatformFee)
		assert.Equal(t, int64(1425), split.InvestorShare)
		assert.Equal(t, int64(3325), split.OwnerShare)
		assert.Equal(t, split.NetProfit, split.InvestorShare+split.OwnerShare+split.PlatformFee)
	})

	t.Run("LossPeriod", func(t *testing.T) {
		split := SplitProfit(1000, 4000, 500, 30, 5)

		assert.Equal(t, int64(-3500), split.NetProfit)
		assert.Equal(t, int64(0), split.PlatformFee, "no fee on a loss period")
		assert.Negative(t, split.InvestorShare)
		assert.Negative(t, split.OwnerShare)
		assert.Equal(t, split.NetProfit, split.InvestorShare+split.OwnerShare+split.PlatformFee)
	})

	t.Run("ZeroRevenue", func(t *testing.T) {
		split := SplitProfit(0, 0, 0, 30, 5)
		assert.Equal(t, int64(0), split.NetProfit)
		assert.Equal(t, int64(0), split.PlatformFee)
	})

	t.Run("SumInvariantUnderRounding", func(t *testing.T) {
		cases := []struct {
			revenue, mfg, other int64
			investorPct, feePct float64
		}{
			{9999, 3333, 111, 33.3, 1},
			{101, 3, 7, 17.5, 2.5},
			{1, 0, 0, 99.9, 0.1},
			{100000001, 33333333, 1, 66.6, 7.77},
		}
		for _, c := range cases {
			split := SplitProfit(c.revenue, c.mfg, c.other, c.investorPct, c.feePct)
			assert.Equal(t, split.NetProfit, split.InvestorShare+split.OwnerShare+split.PlatformFee,
				"split must sum to net profit for %+v", c)
		}
	})
}
