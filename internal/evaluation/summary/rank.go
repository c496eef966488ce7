package summary

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
)

func topByMRR(sums []evaluation.Summary, limit int) []evaluation.Summary {
	sort.SliceStable(sums, func(i, j int) bool { return sums[i].MRR > sums[j].MRR })
	if limit > 0 && len(sums) > limit {
		sums = sums[:limit]
	}
	return sums
}
