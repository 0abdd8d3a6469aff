package engine

import (
	"cmp"
	"slices"
)

// indexKey orders records by date, then id.
type indexKey struct {
	date string
	id   int64
}

func compareKeys(a, b indexKey) int {
	if c := cmp.Compare(a.date, b.date); c != 0 {
		return c
	}
	return cmp.Compare(a.id, b.id)
}

// dateIndex is a sorted secondary index on the date attribute.
type dateIndex []indexKey

func (ix dateIndex) insert(k indexKey) dateIndex {
	pos, found := slices.BinarySearchFunc(ix, k, compareKeys)
	if found {
		return ix
	}
	return slices.Insert(ix, pos, k)
}

func (ix dateIndex) remove(k indexKey) dateIndex {
	pos, found := slices.BinarySearchFunc(ix, k, compareKeys)
	if !found {
		return ix
	}
	return slices.Delete(ix, pos, pos+1)
}

// between returns the keys whose date lies in [start, end].
func (ix dateIndex) between(start, end string) []indexKey {
	if start > end {
		return nil
	}
	lo, _ := slices.BinarySearchFunc(ix, start, func(k indexKey, d string) int {
		return cmp.Compare(k.date, d)
	})
	hi := lo
	for hi < len(ix) && ix[hi].date <= end {
		hi++
	}
	return ix[lo:hi]
}
