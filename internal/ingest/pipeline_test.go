package ingest

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpulse/internal/cache"
	"bizpulse/internal/config"
	"bizpulse/internal/store"
)

// sliceConverter mirrors the pgx stdlib driver, which accepts slice
// arguments (used for `= ANY($1)` lookups) that the default converter
// rejects.
type sliceConverter struct{}

func (sliceConverter) ConvertValue(v any) (driver.Value, error) {
	if _, ok := v.([]string); ok {
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newPipelineService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(sliceConverter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	cfg := config.Default().Ingest
	cfg.LabelsPath = filepath.Join(t.TempDir(), "dataset_config.json")

	svc := NewService(
		store.New(mockDB, nil),
		cache.New(config.RedisConfig{}, nil, nil),
		cfg,
		nil,
		nil,
	)
	return svc, mock
}

func TestIngestEndToEnd(t *testing.T) {
	svc, mock := newPipelineService(t)

	content := []byte("Customer Name,Product,Revenue,Quantity,Date\n" +
		"John Doe,Widget,100,2,2024-01-05\n" +
		"Jane Smith,Gadget,50,1,2024-01-06\n" +
		"John Doe,Widget,100,2,2024-01-05\n")

	mock.ExpectBegin()
	// Entity lookups find nothing, both entity inserts create the rows.
	mock.ExpectQuery(`SELECT email, id FROM customers`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "id"}))
	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "id"}).
			AddRow("john.doe@example.com", 1).
			AddRow("jane.smith@example.com", 2))
	mock.ExpectQuery(`SELECT name, id FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "id"}))
	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "id"}).
			AddRow("Widget", 10).
			AddRow("Gadget", 11))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(101))
	mock.ExpectExec(`INSERT INTO order_items`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	result, err := svc.Ingest(context.Background(), content, "sales.csv")
	require.NoError(t, err)

	assert.Equal(t, "Sales Data Imported Successfully", result.Message)
	assert.Equal(t, TypeSales, result.Type)
	assert.Equal(t, 2, result.RecordsProcessed, "duplicate row removed before persistence")
	assert.Zero(t, result.RowsSkipped)
	assert.Equal(t, 1, result.Cleaning.DuplicatesRemoved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestNotSalesData(t *testing.T) {
	svc, mock := newPipelineService(t)

	content := []byte("alpha,beta\n1,2\n")

	result, err := svc.Ingest(context.Background(), content, "misc.csv")
	require.NoError(t, err)

	assert.Equal(t, TypeNotSales, result.Type)
	assert.Zero(t, result.RecordsProcessed)

	// No transaction, no writes.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestRollsBackOnWriteFailure(t *testing.T) {
	svc, mock := newPipelineService(t)

	content := []byte("Customer Name,Product,Revenue\nJohn Doe,Widget,100\n")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT email, id FROM customers`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "id"}))
	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := svc.Ingest(context.Background(), content, "sales.csv")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestWritesLabelsArtifact(t *testing.T) {
	svc, mock := newPipelineService(t)

	content := []byte("Customer Name,Revenue,Cuisine,City\nJohn Doe,100,Italian,Rome\n")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT email, id FROM customers`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "id"}))
	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "id"}).AddRow("john.doe@example.com", 1))
	mock.ExpectQuery(`SELECT name, id FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "id"}))
	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "id"}).AddRow(GeneralItem, 10))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectExec(`INSERT INTO order_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Ingest(context.Background(), content, "sales.csv")
	require.NoError(t, err)

	labels, err := ReadLabels(svc.cfg.LabelsPath)
	require.NoError(t, err)
	assert.Equal(t, "Cuisine", labels.CategoryLabel)
	assert.Equal(t, "City", labels.RegionLabel)
}
