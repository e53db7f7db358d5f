package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine matches a metric line by name, a partial label pattern and value.
// The exporter adds otel scope labels, hence the regex.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("biz_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "biz_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "store", "flush", StatusSuccess)
	bm.RecordOperation(ctx, "store", "flush", StatusSuccess)
	bm.RecordOperation(ctx, "store", "flush", StatusError)
	bm.RecordOperation(ctx, "permission", "review", StatusSuccess)
	bm.RecordDuration(ctx, "totp", "confirm_enable", 20*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "totp", "confirm_enable", 30*time.Millisecond, StatusSuccess)
	bm.RecordBatchSize(ctx, "store", "flush", 3)

	output := scrape(t, provider)

	assertMetricLine(t, output, `biz_test_operations_total`, `domain="store".*operation="flush".*status="success"`, `2`)
	assertMetricLine(t, output, `biz_test_operations_total`, `domain="store".*operation="flush".*status="error"`, `1`)
	assertMetricLine(t, output, `biz_test_operations_total`, `domain="permission".*operation="review"`, `1`)
	assertMetricLine(
		t,
		output,
		`biz_test_operation_duration_seconds_count`,
		`domain="totp".*operation="confirm_enable".*status="success"`,
		`2`,
	)
	assertMetricLine(t, output, `biz_test_batch_size_count`, `domain="store".*operation="flush"`, `1`)
	assertMetricLine(t, output, `biz_test_batch_size_sum`, `domain="store".*operation="flush"`, `3`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noop := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, noop)

	assert.NotPanics(t, func() {
		noop.RecordOperation(context.Background(), "store", "put", StatusSuccess)
		noop.RecordDuration(context.Background(), "store", "put", time.Millisecond, StatusError)
		noop.RecordBatchSize(context.Background(), "store", "flush", 10)
	})
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, Status(nil))
	assert.Equal(t, StatusError, Status(errors.New("boom")))
}
