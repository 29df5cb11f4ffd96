package reports

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWindowSwapsReversedDatesBeforeWidening(t *testing.T) {
	h := NewHandler(nil, slog.Default(), time.UTC)

	r := httptest.NewRequest("GET", "/reports/dashboard?start=2026-03-10&end=2026-03-01", nil)
	from, to := h.parseWindow(r)
	// Both submitted days stay inside the window.
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), to)
}

func TestParseWindowInclusiveEnd(t *testing.T) {
	h := NewHandler(nil, slog.Default(), time.UTC)

	r := httptest.NewRequest("GET", "/reports/dashboard?start=2026-03-01&end=2026-03-05", nil)
	from, to := h.parseWindow(r)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), to)

	r = httptest.NewRequest("GET", "/reports/dashboard?end=none", nil)
	from, to = h.parseWindow(r)
	require.True(t, from.IsZero())
	require.True(t, to.IsZero())
}
