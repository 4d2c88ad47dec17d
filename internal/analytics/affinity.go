package analytics

import (
	"sort"

	"bizpulse/internal/model"
)

// Pair is one product pair bought together, with its association metrics.
type Pair struct {
	ProductA   string  `json:"product_a"`
	ProductB   string  `json:"product_b"`
	Frequency  int     `json:"frequency"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
	Strength   string  `json:"strength"`
}

type pairKey struct {
	a, b int64
}

// ComputeAffinity mines product pairs from order items. Pairs are
// canonicalized lower product id first; only pairs at or above minSupport
// survive, the maxPairs most frequent are kept, and the result is sorted by
// lift descending.
func ComputeAffinity(items []model.OrderProduct, totalOrders int64, minSupport, maxPairs int) []Pair {
	if len(items) == 0 {
		return []Pair{}
	}
	if totalOrders <= 0 {
		totalOrders = 1
	}
	if minSupport < 1 {
		minSupport = 1
	}

	byOrder := make(map[int64][]model.OrderProduct)
	var orderIDs []int64
	for _, it := range items {
		if _, seen := byOrder[it.OrderID]; !seen {
			orderIDs = append(orderIDs, it.OrderID)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	freq := make(map[int64]int)
	names := make(map[int64]string)
	for _, it := range items {
		freq[it.ProductID]++
		names[it.ProductID] = it.ProductName
	}

	pairFreq := make(map[pairKey]int)
	for _, id := range orderIDs {
		basket := byOrder[id]
		for i := 0; i < len(basket); i++ {
			for j := i + 1; j < len(basket); j++ {
				a, b := basket[i].ProductID, basket[j].ProductID
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				pairFreq[pairKey{a, b}]++
			}
		}
	}

	type counted struct {
		key   pairKey
		count int
	}
	var supported []counted
	for key, count := range pairFreq {
		if count >= minSupport {
			supported = append(supported, counted{key, count})
		}
	}

	// Keep the most frequent pairs before computing ratio metrics; ties break
	// on product ids for a stable result.
	sort.Slice(supported, func(i, j int) bool {
		if supported[i].count != supported[j].count {
			return supported[i].count > supported[j].count
		}
		if supported[i].key.a != supported[j].key.a {
			return supported[i].key.a < supported[j].key.a
		}
		return supported[i].key.b < supported[j].key.b
	})
	if maxPairs > 0 && len(supported) > maxPairs {
		supported = supported[:maxPairs]
	}

	pairs := make([]Pair, 0, len(supported))
	for _, c := range supported {
		freqA, freqB := freq[c.key.a], freq[c.key.b]
		lift := float64(c.count) * float64(totalOrders) / (float64(freqA) * float64(freqB))

		pairs = append(pairs, Pair{
			ProductA:   names[c.key.a],
			ProductB:   names[c.key.b],
			Frequency:  c.count,
			Confidence: round1(float64(c.count) / float64(freqA) * 100),
			Lift:       round2(lift),
			Strength:   strength(lift),
		})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Lift > pairs[j].Lift })
	return pairs
}

// strength buckets a lift value. The thresholds are on the raw lift, not the
// rounded one.
func strength(lift float64) string {
	switch {
	case lift > 2.0:
		return "High"
	case lift > 1.2:
		return "Medium"
	default:
		return "Low"
	}
}
