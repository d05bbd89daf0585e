package huim

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Algorithm implemented : EFIM from spmf
// https://www.philippe-fournier-viger.com/spmf/EFIM.pdf

/*	the entry function for efim algo
	compute the local utility (twu) of every item and drop the items below min_util
	rank the remaining items ascending on local utility and rename them to their rank
	remove the dropped items from every transaction and sort each transaction on rank
	sort the transactions on the total order so transactions with equal tails are adjacent
	compute the subtree utility of every item, items above min_util are the first extensions
	depth first search: for every extension item e
		- project the transactions containing e past e, merging equal projections
		- the utility of prefix+e is the sum of the prefix utilities of the projections
		- recompute local and subtree utility on the projections to pick the next extensions

	T_0 : a:6, b:4
	T_1 : b:5, c:5
	min_util : 9
	local utility : a:10 , b:20 , c:10
	rank : a=1, c=2, b=3
	subtree utility : a:10 , c:10 , b:9
	patterns : b:9, a b:10, c b:10
*/

const DefaultMaxMergeSize = 1000

var (
	ErrInvalidMinUtil = errors.New("min utility must be positive")
	ErrNilDataset     = errors.New("dataset is nil")
)

type EFIM struct {
	db   Database
	opts Options

	// ranked item -> original item, original item -> ranked item (0 when pruned)
	newNameToOldName []int
	oldNameToNewName []int

	transactions []*Transaction
	secondary    []int
	primary      []int

	resultsLock sync.Mutex
	patterns    []PatternUtility
	stats       RunStats
}

func NewEFIM(db Database, opts Options) (*EFIM, error) {
	if db == nil {
		return nil, ErrNilDataset
	}
	if opts.MinUtil <= 0 {
		return nil, ErrInvalidMinUtil
	}
	if opts.NumRoutines < 1 {
		opts.NumRoutines = 1
	}
	if opts.MaxMergeSize <= 0 {
		opts.MaxMergeSize = DefaultMaxMergeSize
	}
	return &EFIM{db: db, opts: opts}, nil
}

// MineHighUtilityItemsets runs EFIM once over db.
func MineHighUtilityItemsets(ctx context.Context, db Database, opts Options) (PatternContainer, RunStats, error) {
	efim, err := NewEFIM(db, opts)
	if err != nil {
		return PatternContainer{}, RunStats{}, err
	}
	results, err := efim.Run(ctx)
	if err != nil {
		return PatternContainer{}, RunStats{}, err
	}
	return results, efim.Stats(), nil
}

// Run mines every itemset whose utility is at least MinUtil. The transactions of
// the database are copied before pruning, so a database can be mined repeatedly.
func (e *EFIM) Run(ctx context.Context) (PatternContainer, error) {
	start := time.Now()
	e.patterns = make([]PatternUtility, 0)
	e.stats = RunStats{DatasetName: e.db.GetName(), MinUtil: e.opts.MinUtil}

	logCtx := log.WithFields(log.Fields{"dataset": e.db.GetName(), "minUtil": e.opts.MinUtil})
	logCtx.Info("Starting efim.")

	bins := e.initialize()
	e.stats.MaxMemory = maxMemory(e.stats.MaxMemory)

	var err error
	if len(e.primary) > 0 {
		if e.opts.NumRoutines > 1 {
			err = e.searchConcurrently(ctx)
		} else {
			s := e.newSearchState(bins)
			err = s.backtrack(ctx, e.transactions, e.secondary, e.primary, 0)
			e.collectCounters(s)
		}
	}
	if err != nil {
		logCtx.WithError(err).Error("Efim search aborted.")
		return PatternContainer{}, err
	}

	results := buildPatternContainer(e.patterns)
	e.stats.Patterns = len(results.Patterns)
	e.stats.Elapsed = time.Since(start)
	e.stats.MaxMemory = maxMemory(e.stats.MaxMemory)
	logCtx.WithFields(log.Fields{
		"patterns":   e.stats.Patterns,
		"candidates": e.stats.Candidates,
		"merges":     e.stats.Merges,
		"elapsed":    e.stats.Elapsed.String(),
	}).Info("Efim completed.")
	return results, nil
}

func (e *EFIM) Stats() RunStats {
	return e.stats
}

// initialize prunes, renames and sorts the transactions and returns the bins
// holding the root level bounds.
func (e *EFIM) initialize() *utilityBins {
	maxItem := e.db.GetMaxItem()
	source := e.db.GetTransactions()
	e.stats.Transactions = len(source)

	localUtility := make([]int64, maxItem+1)
	for _, t := range source {
		for _, item := range t.Items {
			localUtility[item] += t.TransactionUtility
		}
	}

	// items ascending on local utility, ties on the original id
	promising := make([]int, 0, maxItem)
	for item := 1; item <= maxItem; item++ {
		if localUtility[item] >= e.opts.MinUtil {
			promising = append(promising, item)
		}
	}
	sort.SliceStable(promising, func(i, j int) bool {
		return localUtility[promising[i]] < localUtility[promising[j]]
	})

	e.oldNameToNewName = make([]int, maxItem+1)
	e.newNameToOldName = make([]int, len(promising)+1)
	e.secondary = make([]int, len(promising))
	for idx, item := range promising {
		rank := idx + 1
		e.oldNameToNewName[item] = rank
		e.newNameToOldName[rank] = item
		e.secondary[idx] = rank
	}

	e.transactions = make([]*Transaction, len(source))
	for i, t := range source {
		e.transactions[i] = t.pruneAndRename(e.oldNameToNewName)
	}

	// empty transactions sort first
	sortTransactions(e.transactions)
	empty := 0
	for empty < len(e.transactions) && len(e.transactions[empty].Items) == 0 {
		empty++
	}
	e.transactions = e.transactions[empty:]

	bins := newUtilityBins(len(e.secondary))
	bins.computeBounds(e.transactions, e.secondary)
	e.primary = make([]int, 0, len(e.secondary))
	for _, item := range e.secondary {
		if e.opts.DisableSubtreePruning || bins.su[item] >= e.opts.MinUtil {
			e.primary = append(e.primary, item)
		}
	}

	e.stats.TransactionsAfterPrune = len(e.transactions)
	e.stats.SecondaryItems = len(e.secondary)
	e.stats.PrimaryItems = len(e.primary)
	log.WithFields(log.Fields{
		"items":        maxItem,
		"secondary":    len(e.secondary),
		"primary":      len(e.primary),
		"transactions": len(e.transactions),
		"removed":      empty,
	}).Debug("Efim initialized.")
	return bins
}

// output records prefix[:prefixLength] + item, translated to labels.
func (e *EFIM) output(prefix []int, prefixLength int, item int, utility int64) {
	labels := make([]string, 0, prefixLength+1)
	for _, ranked := range prefix[:prefixLength] {
		labels = append(labels, e.db.Label(e.newNameToOldName[ranked]))
	}
	labels = append(labels, e.db.Label(e.newNameToOldName[item]))

	e.resultsLock.Lock()
	e.patterns = append(e.patterns, PatternUtility{Items: labels, Utility: utility})
	e.resultsLock.Unlock()
}

func (e *EFIM) collectCounters(s *searchState) {
	e.resultsLock.Lock()
	e.stats.Candidates += s.candidates
	e.stats.Merges += s.merges
	e.resultsLock.Unlock()
}

// buildPatternContainer orders patterns on length and then on their labels.
func buildPatternContainer(patterns []PatternUtility) PatternContainer {
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i].Items) != len(patterns[j].Items) {
			return len(patterns[i].Items) < len(patterns[j].Items)
		}
		return strings.Join(patterns[i].Items, " ") < strings.Join(patterns[j].Items, " ")
	})
	var pc PatternContainer
	pc.Patterns = patterns
	pc.PatternsByLength = make(map[int][]PatternUtility)
	for _, p := range patterns {
		pc.PatternsByLength[len(p.Items)] = append(pc.PatternsByLength[len(p.Items)], p)
	}
	return pc
}

func maxMemory(current uint64) uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.HeapAlloc > current {
		return m.HeapAlloc
	}
	return current
}
