// Package internal holds iterator helpers shared by the simulator packages.
package internal

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Concat2 concatenates multiple dual-return iterators into a single iterator sequence.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for k, v := range seq {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Sorted iterates a map in ascending key order.
func Sorted[K cmp.Ordered, V any](m map[K]V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// ByValue iterates a map in ascending value order, breaking ties by key.
func ByValue[K cmp.Ordered, V cmp.Ordered](m map[K]V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		keys := slices.SortedFunc(maps.Keys(m), func(a, b K) int {
			if c := cmp.Compare(m[a], m[b]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
