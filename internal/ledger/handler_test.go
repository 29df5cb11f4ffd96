package ledger

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlexIntCoercion(t *testing.T) {
	var payload struct {
		Quantity flexInt `json:"quantity"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 7}`), &payload))
	require.Equal(t, flexInt(7), payload.Quantity)

	require.NoError(t, json.Unmarshal([]byte(`{"quantity": "12"}`), &payload))
	require.Equal(t, flexInt(12), payload.Quantity)

	// Garbage coerces to zero and gets rejected downstream as an invalid
	// quantity instead of a malformed request.
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": "abc"}`), &payload))
	require.Equal(t, flexInt(0), payload.Quantity)
}

func TestParseFilterIgnoresPlaceholders(t *testing.T) {
	r := httptest.NewRequest("GET", "/ledger/movements?product_id=none&type=none&ref_type=None&from=none", nil)
	filter := parseFilter(r)
	require.Zero(t, filter.ProductID)
	require.Empty(t, filter.Type)
	require.Empty(t, filter.RefType)
	require.True(t, filter.From.IsZero())
}

func TestParseFilterIgnoresUnparseableValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/ledger/movements?product_id=abc&type=TRANSFER&from=31-12-2026&page=-1", nil)
	filter := parseFilter(r)
	require.Zero(t, filter.ProductID)
	require.Empty(t, filter.Type)
	require.True(t, filter.From.IsZero())
	require.Zero(t, filter.Page)
}

func TestParseFilterSwapsReversedDatesBeforeWidening(t *testing.T) {
	r := httptest.NewRequest("GET", "/ledger/movements?from=2026-03-10&to=2026-03-01", nil)
	filter := parseFilter(r)
	// Both submitted days stay inside the window.
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), filter.From)
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), filter.To)
}

func TestParseFilterPresets(t *testing.T) {
	for query, want := range map[string]Preset{
		"preset=daily":   PresetDaily,
		"preset=today":   PresetDaily,
		"preset=weekly":  PresetWeekly,
		"preset=monthly": PresetMonthly,
		"preset=yearly":  "",
	} {
		r := httptest.NewRequest("GET", "/ledger/movements?"+query, nil)
		require.Equal(t, want, parseFilter(r).Preset, query)
	}
}

func TestParseFilterCategory(t *testing.T) {
	r := httptest.NewRequest("GET", "/ledger/movements?category=4", nil)
	require.Equal(t, int64(4), parseFilter(r).CategoryID)

	r = httptest.NewRequest("GET", "/ledger/movements?category=none", nil)
	require.Zero(t, parseFilter(r).CategoryID)

	r = httptest.NewRequest("GET", "/ledger/movements?category=shoes", nil)
	require.Zero(t, parseFilter(r).CategoryID)
}

func TestParseFilterInclusiveEndDate(t *testing.T) {
	r := httptest.NewRequest("GET", "/ledger/movements?from=2026-03-01&to=2026-03-05&type=out&ref_type=cus_inv&product_id=3", nil)
	filter := parseFilter(r)
	require.Equal(t, int64(3), filter.ProductID)
	require.Equal(t, MovementOut, filter.Type)
	require.Equal(t, RefCustomerInvoice, filter.RefType)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), filter.From)
	require.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), filter.To)
}
