package meta

import (
	"slices"
	"strings"
)

// keyed describes how a module collection identifies its entries.
type keyed[T any] struct {
	key      func(T) string
	equal    func(a, b T) bool
	isZero   func(T) bool
	null     func() error
	conflict func(a, b T) error
}

// sortUnique sorts items by key, folding equal duplicates.
// Different payloads under one key are a conflict.
func (k keyed[T]) sortUnique(items []T) ([]T, error) {
	slices.SortStableFunc(items, func(a, b T) int { return strings.Compare(k.key(a), k.key(b)) })
	out := items[:0]
	for _, it := range items {
		if n := len(out); n > 0 && k.key(out[n-1]) == k.key(it) {
			if !k.equal(out[n-1], it) {
				return nil, k.conflict(out[n-1], it)
			}
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// index maps upserts by key, keeping argument order for new entries.
func (k keyed[T]) index(items []T) (map[string]T, []string, error) {
	byKey := make(map[string]T, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if k.isZero(it) {
			return nil, nil, k.null()
		}
		key := k.key(it)
		if old, ok := byKey[key]; ok {
			if !k.equal(old, it) {
				return nil, nil, k.conflict(old, it)
			}
			continue
		}
		byKey[key] = it
		order = append(order, key)
	}
	return byKey, order, nil
}

// upsert replaces entries sharing a key with the new value and appends the rest.
func (k keyed[T]) upsert(items []T, byKey map[string]T, order []string) []T {
	if len(byKey) == 0 {
		return items
	}
	replaced := make(map[string]bool, len(byKey))
	out := items[:0]
	for _, it := range items {
		key := k.key(it)
		repl, ok := byKey[key]
		if !ok {
			out = append(out, it)
			continue
		}
		if replaced[key] {
			continue
		}
		replaced[key] = true
		out = append(out, repl)
	}
	for _, key := range order {
		if !replaced[key] {
			out = append(out, byKey[key])
		}
	}
	return out
}

// removeFunc drops entries matching pred and reports whether any were dropped.
func removeFunc[T any](items []T, pred func(T) bool) ([]T, bool) {
	if pred == nil {
		return items, false
	}
	n := len(items)
	items = slices.DeleteFunc(items, pred)
	return items, len(items) != n
}

// keySetPredicate matches entries whose key is in keys; nil for an empty set.
func keySetPredicate[T any](keys []string, key func(T) string) func(T) bool {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return func(it T) bool {
		_, ok := set[key(it)]
		return ok
	}
}
