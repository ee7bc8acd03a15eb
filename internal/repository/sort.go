package repository

import "sort"

func sortNewestFirst[T any](records []T, seq func(T) uint64) {
	sort.Slice(records, func(i, j int) bool {
		return seq(records[i]) > seq(records[j])
	})
}
