package order

import "slices"

// ComparePriority orders transport orders by descending priority. Equal
// priorities fall back to the ascending surrogate id, so the result is a
// total order over persisted orders.
func ComparePriority(a, b *TransportOrder) int {
	if a.priority != b.priority {
		if a.priority > b.priority {
			return -1
		}
		return 1
	}
	switch {
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	default:
		return 0
	}
}

// SortByPriority sorts orders in place, most urgent first.
func SortByPriority(orders []*TransportOrder) {
	slices.SortStableFunc(orders, ComparePriority)
}
