// Package analytics computes retention cohorts, product affinity, revenue
// KPIs and the linear revenue forecast from the store's read projections.
package analytics

import (
	"math"
	"sort"
	"time"

	"bizpulse/internal/model"
)

// RetentionPeriod is one observation month for a cohort, indexed from the
// cohort's own month.
type RetentionPeriod struct {
	MonthIndex int     `json:"month_index"`
	Customers  int     `json:"active_customers"`
	Percentage float64 `json:"percentage"`
}

// Cohort groups the customers whose first order fell in one calendar month
// and tracks how many came back in each later month.
type Cohort struct {
	Cohort    string            `json:"cohort"`
	Size      int               `json:"size"`
	Retention []RetentionPeriod `json:"retention"`
}

// ComputeCohorts builds monthly retention cohorts from the order stamps.
// A customer belongs to the month of their earliest order; month index 0
// always covers the whole cohort.
func ComputeCohorts(stamps []model.OrderStamp) []Cohort {
	if len(stamps) == 0 {
		return []Cohort{}
	}

	firstMonth := make(map[int64]time.Time)
	for _, st := range stamps {
		month := monthOf(st.CreatedAt)
		if cur, ok := firstMonth[st.CustomerID]; !ok || month.Before(cur) {
			firstMonth[st.CustomerID] = month
		}
	}

	// active[cohortMonth][monthIndex] = distinct customers seen.
	active := make(map[time.Time]map[int][]int64)
	for _, st := range stamps {
		cohort := firstMonth[st.CustomerID]
		idx := monthIndex(cohort, monthOf(st.CreatedAt))
		if active[cohort] == nil {
			active[cohort] = make(map[int][]int64)
		}
		active[cohort][idx] = append(active[cohort][idx], st.CustomerID)
	}

	months := make([]time.Time, 0, len(active))
	for m := range active {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	cohorts := make([]Cohort, 0, len(months))
	for _, month := range months {
		size := distinct(active[month][0])

		indices := make([]int, 0, len(active[month]))
		for idx := range active[month] {
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		periods := make([]RetentionPeriod, 0, len(indices))
		for _, idx := range indices {
			customers := distinct(active[month][idx])
			pct := 0.0
			if size > 0 {
				pct = round1(float64(customers) / float64(size) * 100)
			}
			periods = append(periods, RetentionPeriod{
				MonthIndex: idx,
				Customers:  customers,
				Percentage: pct,
			})
		}

		cohorts = append(cohorts, Cohort{
			Cohort:    month.Format("2006-01"),
			Size:      size,
			Retention: periods,
		})
	}

	return cohorts
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthIndex(cohort, observed time.Time) int {
	return (observed.Year()-cohort.Year())*12 + int(observed.Month()) - int(cohort.Month())
}

func distinct(ids []int64) int {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
