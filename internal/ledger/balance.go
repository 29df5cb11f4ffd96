package ledger

// BalanceRow pairs a movement with the stock level before and after it was
// applied.
type BalanceRow struct {
	Movement Movement `json:"movement"`
	Before   int      `json:"balance_before"`
	After    int      `json:"balance_after"`
}

// Reconstruct derives per-movement balances by walking a product's full
// history newest-first, starting from the current counter value. movements
// must be ordered by recency descending and cover the entire history;
// otherwise the derived balances drift from reality.
//
// The returned initial value is the balance before the oldest movement. For a
// complete, consistent history it is zero; anything else signals that the
// counter and the ledger disagree. negative reports whether any derived
// balance dipped below zero along the walk, which also cannot happen for a
// consistent history since the writer refuses overdrawing movements.
func Reconstruct(currentStock int, movements []Movement) (rows []BalanceRow, initial int, negative bool) {
	rows = make([]BalanceRow, 0, len(movements))
	running := currentStock
	for _, m := range movements {
		after := running
		before := after
		switch m.Type {
		case MovementIn:
			before = after - m.Quantity
		case MovementOut:
			before = after + m.Quantity
		}
		if before < 0 || after < 0 {
			negative = true
		}
		rows = append(rows, BalanceRow{Movement: m, Before: before, After: after})
		running = before
	}
	return rows, running, negative
}
