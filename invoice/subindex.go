// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package invoice

import "fmt"

// SubIndex identifies a subaddress within a Monero account by its major
// (account) and minor (address) index. SubIndex{0, 0} is the primary
// address.
type SubIndex struct {
	Major uint32
	Minor uint32
}

// Primary is the account's primary address index.
var Primary = SubIndex{Major: 0, Minor: 0}

// IsPrimary reports whether this is the primary address index.
func (s SubIndex) IsPrimary() bool {
	return s == Primary
}

// Less orders sub-indices lexicographically by (Major, Minor).
func (s SubIndex) Less(other SubIndex) bool {
	if s.Major != other.Major {
		return s.Major < other.Major
	}
	return s.Minor < other.Minor
}

func (s SubIndex) String() string {
	return fmt.Sprintf("%d/%d", s.Major, s.Minor)
}

// ID identifies an invoice by the subaddress it was issued against and the
// chain height at which it was created. IDs order lexicographically on
// (Index, CreationHeight), which lets a store answer "every invoice for
// this sub-index" with a single range scan over [ID{idx, 0}, ID{idx+1, 0}).
type ID struct {
	Index          SubIndex
	CreationHeight uint64
}

// Less implements the store's total order over invoice IDs.
func (id ID) Less(other ID) bool {
	if id.Index != other.Index {
		return id.Index.Less(other.Index)
	}
	return id.CreationHeight < other.CreationHeight
}

func (id ID) String() string {
	return fmt.Sprintf("%s@%d", id.Index, id.CreationHeight)
}

// RangeStart returns the lowest possible ID for the given sub-index,
// suitable as the inclusive lower bound of a range scan.
func RangeStart(idx SubIndex) ID {
	return ID{Index: idx, CreationHeight: 0}
}

// RangeEnd returns the exclusive upper bound of a range scan covering every
// invoice issued against idx.
func RangeEnd(idx SubIndex) ID {
	next := idx
	if next.Minor == ^uint32(0) {
		next.Major++
		next.Minor = 0
	} else {
		next.Minor++
	}
	return ID{Index: next, CreationHeight: 0}
}
