// Package keyset provides the composite-key and list-correspondence helpers
// used by the diff generator and the lint command.
package keyset

import (
	"sort"
	"strings"
)

// Separator joins the parts of a composite key.
const Separator = ":"

// Concat builds a composite key such as "namespace:key" or
// "namespace:key:language".
func Concat(parts ...string) string {
	return strings.Join(parts, Separator)
}

// Matched is the result of Match.
type Matched[T any] struct {
	// Pairs holds accepted (left, right) pairs.
	Pairs [][2]T
	// Left holds left items without a partner, plus the left side of
	// rejected pairs.
	Left []T
	// Right is the same for the right list.
	Right []T
}

// Match pairs up items of left and right that share a key.
//
// Both lists are indexed by keyOf; when a list repeats a key the last item
// wins. For every key present on both sides the pair is accepted when accept
// returns true. Everything else lands in the remainders, which keep the
// order of the input lists.
func Match[T any, K comparable](left, right []T, keyOf func(T) K, accept func(l, r T) bool) Matched[T] {
	leftIdx := index(left, keyOf)
	rightIdx := index(right, keyOf)

	var res Matched[T]
	matched := make(map[K]bool)

	for i, l := range left {
		k := keyOf(l)
		if leftIdx[k] != i {
			continue
		}
		j, ok := rightIdx[k]
		if !ok {
			continue
		}
		if accept(l, right[j]) {
			res.Pairs = append(res.Pairs, [2]T{l, right[j]})
			matched[k] = true
		}
	}

	for i, l := range left {
		k := keyOf(l)
		if leftIdx[k] == i && !matched[k] {
			res.Left = append(res.Left, l)
		}
	}
	for j, r := range right {
		k := keyOf(r)
		if rightIdx[k] == j && !matched[k] {
			res.Right = append(res.Right, r)
		}
	}

	return res
}

// index maps every key to the position of its last occurrence.
func index[T any, K comparable](items []T, keyOf func(T) K) map[K]int {
	idx := make(map[K]int, len(items))
	for i, item := range items {
		idx[keyOf(item)] = i
	}
	return idx
}

// Duplicates returns every item whose key occurs at least twice, sorted by
// key. Items sharing a key keep their input order.
func Duplicates[T any](items []T, keyOf func(T) string) []T {
	counts := make(map[string]int, len(items))
	for _, item := range items {
		counts[keyOf(item)]++
	}

	var dups []T
	for _, item := range items {
		if counts[keyOf(item)] > 1 {
			dups = append(dups, item)
		}
	}
	sort.SliceStable(dups, func(i, j int) bool {
		return keyOf(dups[i]) < keyOf(dups[j])
	})
	return dups
}
