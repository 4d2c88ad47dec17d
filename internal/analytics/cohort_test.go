package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/model"
)

func stamp(customerID int64, year int, month time.Month, day int) model.OrderStamp {
	return model.OrderStamp{
		CustomerID: customerID,
		CreatedAt:  time.Date(year, month, day, 10, 0, 0, 0, time.UTC),
	}
}

func TestComputeCohortsEmpty(t *testing.T) {
	assert.Empty(t, ComputeCohorts(nil))
}

func TestComputeCohortsSingleCohort(t *testing.T) {
	stamps := []model.OrderStamp{
		stamp(1, 2024, time.January, 5),
		stamp(2, 2024, time.January, 20),
		stamp(1, 2024, time.February, 3),
	}

	cohorts := ComputeCohorts(stamps)
	require.Len(t, cohorts, 1)

	c := cohorts[0]
	assert.Equal(t, "2024-01", c.Cohort)
	assert.Equal(t, 2, c.Size)

	require.Len(t, c.Retention, 2)
	assert.Equal(t, RetentionPeriod{MonthIndex: 0, Customers: 2, Percentage: 100.0}, c.Retention[0])
	assert.Equal(t, RetentionPeriod{MonthIndex: 1, Customers: 1, Percentage: 50.0}, c.Retention[1])
}

func TestComputeCohortsMonthZeroEqualsSize(t *testing.T) {
	stamps := []model.OrderStamp{
		stamp(1, 2024, time.January, 1),
		stamp(1, 2024, time.January, 15),
		stamp(2, 2024, time.January, 20),
		stamp(3, 2024, time.February, 2),
		stamp(3, 2024, time.March, 2),
	}

	for _, c := range ComputeCohorts(stamps) {
		require.NotEmpty(t, c.Retention)
		first := c.Retention[0]
		assert.Equal(t, 0, first.MonthIndex)
		assert.Equal(t, c.Size, first.Customers)
		assert.Equal(t, 100.0, first.Percentage)
	}
}

func TestComputeCohortsYearBoundary(t *testing.T) {
	stamps := []model.OrderStamp{
		stamp(1, 2023, time.November, 10),
		stamp(1, 2024, time.February, 10),
	}

	cohorts := ComputeCohorts(stamps)
	require.Len(t, cohorts, 1)
	require.Len(t, cohorts[0].Retention, 2)
	assert.Equal(t, 3, cohorts[0].Retention[1].MonthIndex)
}

func TestComputeCohortsMultipleCohortsSorted(t *testing.T) {
	stamps := []model.OrderStamp{
		stamp(2, 2024, time.March, 1),
		stamp(1, 2024, time.January, 1),
	}

	cohorts := ComputeCohorts(stamps)
	require.Len(t, cohorts, 2)
	assert.Equal(t, "2024-01", cohorts[0].Cohort)
	assert.Equal(t, "2024-03", cohorts[1].Cohort)
}

func TestCohortJSONFieldNames(t *testing.T) {
	cohorts := ComputeCohorts([]model.OrderStamp{
		stamp(1, 2024, time.January, 5),
	})

	raw, err := json.Marshal(cohorts)
	require.NoError(t, err)

	assert.JSONEq(t,
		`[{"cohort":"2024-01","size":1,"retention":[{"month_index":0,"active_customers":1,"percentage":100}]}]`,
		string(raw))
}

func TestComputeCohortsRoundsToOneDecimal(t *testing.T) {
	stamps := []model.OrderStamp{
		stamp(1, 2024, time.January, 1),
		stamp(2, 2024, time.January, 1),
		stamp(3, 2024, time.January, 1),
		stamp(1, 2024, time.February, 1),
	}

	cohorts := ComputeCohorts(stamps)
	require.Len(t, cohorts, 1)
	require.Len(t, cohorts[0].Retention, 2)
	// 1/3 = 33.333... rounds to 33.3.
	assert.Equal(t, 33.3, cohorts[0].Retention[1].Percentage)
}
