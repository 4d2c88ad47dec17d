package analytics

import (
	"bizpulse/internal/model"
)

// Forecast extends a daily revenue series with days of linear-trend
// predictions. History points come back unchanged; predictions carry
// is_forecast, walk forward one day at a time from the last observed date
// and never go below zero.
func Forecast(history []model.RevenuePoint, days int) []model.RevenuePoint {
	if len(history) == 0 || days <= 0 {
		return history
	}

	slope, intercept := fitTrend(history)

	out := make([]model.RevenuePoint, 0, len(history)+days)
	out = append(out, history...)

	last := history[len(history)-1]
	n := len(history)
	for i := 0; i < days; i++ {
		date := last.Date.AddDate(0, 0, i+1)
		predicted := slope*float64(n+i) + intercept
		if predicted < 0 {
			predicted = 0
		}
		out = append(out, model.RevenuePoint{
			Date:       date,
			DateStr:    date.Format("2006-01-02"),
			Revenue:    round2(predicted),
			IsForecast: true,
		})
	}

	return out
}

// fitTrend runs ordinary least squares over the series indexed 0..n-1.
// A single observation gets a synthetic flat companion point so the trend
// continues at the observed level; a degenerate denominator collapses to a
// flat line at the mean.
func fitTrend(history []model.RevenuePoint) (slope, intercept float64) {
	values := make([]float64, 0, len(history)+1)
	if len(history) == 1 {
		values = append(values, history[0].Revenue)
	}
	for _, p := range history {
		values = append(values, p.Revenue)
	}

	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
