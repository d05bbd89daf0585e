package huim

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// CompareTransactions is the total order used to place transactions that share
// their highest ranked items next to each other. Items are compared from the last
// one backward; when one transaction runs out of items the shorter one comes first.
func CompareTransactions(t1, t2 *Transaction) int {
	pos1, pos2 := len(t1.Items)-1, len(t2.Items)-1
	for pos1 >= 0 && pos2 >= 0 {
		if sub := t2.Items[pos2] - t1.Items[pos1]; sub != 0 {
			return sub
		}
		pos1--
		pos2--
	}
	switch {
	case len(t1.Items) < len(t2.Items):
		return -1
	case len(t1.Items) > len(t2.Items):
		return 1
	default:
		return 0
	}
}

func sortTransactions(transactions []*Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		return CompareTransactions(transactions[i], transactions[j]) < 0
	})
}

// utilityBins holds the local utility and subtree utility accumulators indexed by
// ranked item. One set of bins is reused by every level of a search.
type utilityBins struct {
	lu      []int64
	su      []int64
	members *bitset.BitSet
}

func newUtilityBins(maxItem int) *utilityBins {
	return &utilityBins{
		lu:      make([]int64, maxItem+1),
		su:      make([]int64, maxItem+1),
		members: bitset.New(uint(maxItem + 1)),
	}
}

// computeBounds resets the bins of items and fills them from transactions. The
// prefix utility of a transaction counts toward every item it still holds.
func (b *utilityBins) computeBounds(transactions []*Transaction, items []int) {
	b.members.ClearAll()
	for _, item := range items {
		b.lu[item] = 0
		b.su[item] = 0
		b.members.Set(uint(item))
	}
	for _, t := range transactions {
		var sumRemainingUtility int64
		for i := len(t.Items) - 1; i >= t.Offset; i-- {
			item := t.Items[i]
			if !b.members.Test(uint(item)) {
				continue
			}
			sumRemainingUtility += t.Utilities[i]
			b.su[item] += sumRemainingUtility + t.PrefixUtility
			b.lu[item] += t.TransactionUtility + t.PrefixUtility
		}
	}
}

// filterItems splits items into the ones worth keeping for later extensions and the
// ones to extend the current prefix with.
func (b *utilityBins) filterItems(items []int, minUtil int64, subtreePruning bool) ([]int, []int) {
	secondary := make([]int, 0, len(items))
	primary := make([]int, 0, len(items))
	for _, item := range items {
		if b.lu[item] < minUtil {
			continue
		}
		secondary = append(secondary, item)
		if !subtreePruning || b.su[item] >= minUtil {
			primary = append(primary, item)
		}
	}
	return secondary, primary
}
