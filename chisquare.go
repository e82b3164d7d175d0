// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// 2x3 contingency table => (2-1)*(3-1) degrees of freedom.
var chisquared = distuv.ChiSquared{K: 2, Src: rand.NewSource(rand.Uint64())}

// uniformityStatistic returns the Pearson chi-square statistic of the
// contingency table whose rows are the observed counts and the counts
// expected under a uniform distribution (total/3 each).
func uniformityStatistic(obs [3]int) float64 {
	var total float64
	for _, n := range obs {
		total += float64(n)
	}
	if total == 0 {
		return 0
	}
	var table [2][3]float64
	for i, n := range obs {
		table[0][i] = float64(n)
		table[1][i] = total / 3
	}
	// Both rows sum to total.
	grand := 2 * total
	var sum float64
	for _, row := range table {
		for i, o := range row {
			exp := total * (table[0][i] + table[1][i]) / grand
			d := o - exp
			sum += d * d / exp
		}
	}
	return sum
}

// uniformityPvalue returns the p-value of the hypothesis that obs is
// uniformly distributed over the three codon positions. No continuity
// correction is applied. With no observations the p-value is 1.
func uniformityPvalue(obs [3]int) float64 {
	if obs[0]+obs[1]+obs[2] == 0 {
		return 1
	}
	return 1 - chisquared.CDF(uniformityStatistic(obs))
}
