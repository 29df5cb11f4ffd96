package ledger

import (
	"time"

	"github.com/chuestock/chuestock/internal/shared"
)

// Preset names a predefined reporting window.
type Preset string

const (
	PresetDaily   Preset = "daily"
	PresetWeekly  Preset = "weekly"
	PresetMonthly Preset = "monthly"
)

// Filter narrows a movement listing. Zero values mean "no constraint".
// An explicit From/To pair overrides Preset.
type Filter struct {
	ProductID  int64
	CategoryID int64
	Search     string
	Type       MovementType
	RefType    RefType
	From       time.Time
	To         time.Time
	Preset     Preset

	Page    int
	PerPage int
}

// Filtered reports whether any narrowing constraint is active.
func (f Filter) Filtered() bool {
	return f.ProductID != 0 || f.CategoryID != 0 || f.Search != "" || f.Type != "" ||
		f.RefType != "" || !f.From.IsZero() || !f.To.IsZero() || f.Preset != ""
}

// Resolve normalises the filter against the wall clock: presets expand to a
// concrete [From, To) window and a reversed explicit range is swapped rather
// than rejected. now carries the reporting timezone.
func (f Filter) Resolve(now time.Time) Filter {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		f.From, f.To = f.To, f.From
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		f.Preset = ""
		return f
	}
	switch f.Preset {
	case PresetDaily:
		f.From = startOfDay(now)
		f.To = f.From.AddDate(0, 0, 1)
	case PresetWeekly:
		// ISO week, Monday through Sunday.
		offset := (int(now.Weekday()) + 6) % 7
		f.From = startOfDay(now).AddDate(0, 0, -offset)
		f.To = f.From.AddDate(0, 0, 7)
	case PresetMonthly:
		f.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		f.To = f.From.AddDate(0, 1, 0)
	}
	return f
}

// Pagination returns the page metadata for a total row count, applying the
// listing defaults.
func (f Filter) Pagination(total int) shared.Pagination {
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	return shared.NewPagination(f.Page, perPage, total)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
