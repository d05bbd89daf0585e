package huim

import (
	"fmt"
	"sort"
)

// NewTransaction builds a transaction at offset zero. The utility is the sum of the
// item utilities.
func NewTransaction(items []int, utilities []int64) *Transaction {
	var sum int64
	for _, u := range utilities {
		sum += u
	}
	return &Transaction{
		Items:              items,
		Utilities:          utilities,
		TransactionUtility: sum,
	}
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction(%v, %d, %v, offset=%d, prefix=%d)",
		t.Items[t.Offset:], t.TransactionUtility, t.Utilities[t.Offset:], t.Offset, t.PrefixUtility)
}

func (t *Transaction) LastPosition() int {
	return len(t.Items) - 1
}

// Remaining is the number of items from the offset on.
func (t *Transaction) Remaining() int {
	return len(t.Items) - t.Offset
}

// Position binary searches item in Items[Offset:]. When the item is absent the
// returned position is the index where it would be inserted.
func (t *Transaction) Position(item int) (int, bool) {
	pos := t.Offset + sort.SearchInts(t.Items[t.Offset:], item)
	return pos, pos < len(t.Items) && t.Items[pos] == item
}

func (t *Transaction) utilityBetween(from, to int) int64 {
	var sum int64
	for i := from; i < to; i++ {
		sum += t.Utilities[i]
	}
	return sum
}

// Project returns the projection of t past the item at pos. The projection shares
// the storage of t and t itself is left untouched.
func (t *Transaction) Project(pos int) *Transaction {
	utilityE := t.Utilities[pos]
	return &Transaction{
		Items:              t.Items,
		Utilities:          t.Utilities,
		PrefixUtility:      t.PrefixUtility + utilityE,
		TransactionUtility: t.TransactionUtility - t.utilityBetween(t.Offset, pos) - utilityE,
		Offset:             pos + 1,
	}
}

// AdvanceTo moves the offset forward to pos. Items ranked below the next extension
// item can never be part of a later extension of the same prefix.
func (t *Transaction) AdvanceTo(pos int) {
	if pos <= t.Offset {
		return
	}
	t.TransactionUtility -= t.utilityBetween(t.Offset, pos)
	t.Offset = pos
}

// SameSuffix reports whether t and o hold the same items from their offsets on.
func (t *Transaction) SameSuffix(o *Transaction) bool {
	if t.Remaining() != o.Remaining() {
		return false
	}
	for i, j := t.Offset, o.Offset; i < len(t.Items); i, j = i+1, j+1 {
		if t.Items[i] != o.Items[j] {
			return false
		}
	}
	return true
}

// ownedCopy copies the suffix of t into fresh storage so it can be written to.
func (t *Transaction) ownedCopy() *Transaction {
	items := make([]int, t.Remaining())
	copy(items, t.Items[t.Offset:])
	utilities := make([]int64, t.Remaining())
	copy(utilities, t.Utilities[t.Offset:])
	return &Transaction{
		Items:              items,
		Utilities:          utilities,
		TransactionUtility: t.TransactionUtility,
		PrefixUtility:      t.PrefixUtility,
	}
}

// absorb adds the utilities of o into t position by position. t must own its
// storage and both must satisfy SameSuffix.
func (t *Transaction) absorb(o *Transaction) {
	for i, j := t.Offset, o.Offset; i < len(t.Items); i, j = i+1, j+1 {
		t.Utilities[i] += o.Utilities[j]
	}
	t.TransactionUtility += o.TransactionUtility
	t.PrefixUtility += o.PrefixUtility
}

// pruneAndRename returns a copy of t holding only the items with a ranked name,
// relabelled and sorted by rank. Dropped utilities leave TransactionUtility.
func (t *Transaction) pruneAndRename(oldNameToNewName []int) *Transaction {
	items := make([]int, 0, len(t.Items))
	utilities := make([]int64, 0, len(t.Items))
	transactionUtility := t.TransactionUtility
	for i, item := range t.Items {
		if item < len(oldNameToNewName) && oldNameToNewName[item] != 0 {
			items = append(items, oldNameToNewName[item])
			utilities = append(utilities, t.Utilities[i])
		} else {
			transactionUtility -= t.Utilities[i]
		}
	}
	insertionSort(items, utilities)
	return &Transaction{
		Items:              items,
		Utilities:          utilities,
		TransactionUtility: transactionUtility,
	}
}

// insertionSort sorts items ascending and keeps utilities parallel. Renamed
// transactions are close to sorted already.
func insertionSort(items []int, utilities []int64) {
	for j := 1; j < len(items); j++ {
		item, utility := items[j], utilities[j]
		i := j - 1
		for ; i >= 0 && items[i] > item; i-- {
			items[i+1] = items[i]
			utilities[i+1] = utilities[i]
		}
		items[i+1] = item
		utilities[i+1] = utility
	}
}
