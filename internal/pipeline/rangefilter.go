package pipeline

import "riprocess-image-list/internal/model"

// FilterRange returns the contiguous run of items between the item whose key
// equals *start and the item whose key equals *end, both inclusive.
//
// items must already be sorted ascending on key. A nil bound means the first
// (or last) item. A bound that matches no key fails with
// model.ErrRangeNotFound; there is no nearest-match fallback. A start that
// sits after the end yields an empty slice.
func FilterRange[T any, K comparable](items []T, key func(T) K, start, end *K) ([]T, error) {
	lo, hi := 0, len(items)-1

	if start != nil {
		lo = indexOfKey(items, key, *start)
		if lo < 0 {
			return nil, model.RangeNotFound(*start)
		}
	}
	if end != nil {
		hi = indexOfKey(items, key, *end)
		if hi < 0 {
			return nil, model.RangeNotFound(*end)
		}
	}

	if len(items) == 0 || lo > hi {
		return []T{}, nil
	}
	return items[lo : hi+1], nil
}

func indexOfKey[T any, K comparable](items []T, key func(T) K, want K) int {
	for i, it := range items {
		if key(it) == want {
			return i
		}
	}
	return -1
}
