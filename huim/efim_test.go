package huim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDatabase struct {
	name         string
	transactions []*Transaction
	labels       []string
	ids          map[string]int
}

func (m *memDatabase) GetName() string                 { return m.name }
func (m *memDatabase) GetTransactions() []*Transaction { return m.transactions }
func (m *memDatabase) GetMaxItem() int                 { return len(m.labels) - 1 }
func (m *memDatabase) Label(item int) string           { return m.labels[item] }

// newMemDatabase builds a database from lines like "a:6 b:4".
func newMemDatabase(t *testing.T, lines ...string) *memDatabase {
	m := &memDatabase{name: "mem", labels: []string{""}, ids: make(map[string]int)}
	for _, line := range lines {
		items := make([]int, 0)
		utilities := make([]int64, 0)
		for _, token := range strings.Fields(line) {
			parts := strings.Split(token, ":")
			require.Len(t, parts, 2)
			u, err := strconv.ParseInt(parts[1], 10, 64)
			require.NoError(t, err)
			id, ok := m.ids[parts[0]]
			if !ok {
				id = len(m.labels)
				m.ids[parts[0]] = id
				m.labels = append(m.labels, parts[0])
			}
			items = append(items, id)
			utilities = append(utilities, u)
		}
		m.transactions = append(m.transactions, NewTransaction(items, utilities))
	}
	return m
}

func randomDatabase(t *testing.T, seed int64, numTransactions, numItems, maxLen int) *memDatabase {
	r := rand.New(rand.NewSource(seed))
	lines := make([]string, 0, numTransactions)
	for i := 0; i < numTransactions; i++ {
		n := 1 + r.Intn(maxLen)
		tokens := make([]string, 0, n)
		for _, item := range r.Perm(numItems)[:n] {
			tokens = append(tokens, fmt.Sprintf("i%d:%d", item, 1+r.Intn(10)))
		}
		lines = append(lines, strings.Join(tokens, " "))
	}
	return newMemDatabase(t, lines...)
}

func patternKey(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// bruteForce enumerates every itemset of every transaction.
func bruteForce(db *memDatabase, minUtil int64) map[string]int64 {
	utilities := make(map[string]int64)
	for _, trn := range db.transactions {
		n := len(trn.Items)
		for mask := 1; mask < 1<<n; mask++ {
			labels := make([]string, 0, n)
			var u int64
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					labels = append(labels, db.Label(trn.Items[i]))
					u += trn.Utilities[i]
				}
			}
			utilities[patternKey(labels)] += u
		}
	}
	for k, u := range utilities {
		if u < minUtil {
			delete(utilities, k)
		}
	}
	return utilities
}

func resultMap(t *testing.T, pc PatternContainer) map[string]int64 {
	results := make(map[string]int64)
	for _, p := range pc.Patterns {
		key := patternKey(p.Items)
		_, dup := results[key]
		assert.False(t, dup, "duplicate pattern %s", key)
		results[key] = p.Utility
	}
	return results
}

func totalUtility(db *memDatabase) int64 {
	var total int64
	for _, trn := range db.transactions {
		total += trn.TransactionUtility
	}
	return total
}

func TestEfimWorkedExample(t *testing.T) {
	db := newMemDatabase(t, "a:6 b:4", "b:5 c:5")

	pc, stats, err := MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 9})
	require.NoError(t, err)

	assert.Equal(t, []PatternUtility{
		{Items: []string{"b"}, Utility: 9},
		{Items: []string{"a", "b"}, Utility: 10},
		{Items: []string{"c", "b"}, Utility: 10},
	}, pc.Patterns)
	assert.Len(t, pc.PatternsByLength[1], 1)
	assert.Len(t, pc.PatternsByLength[2], 2)
	assert.Equal(t, bruteForce(db, 9), resultMap(t, pc))

	assert.Equal(t, "mem", stats.DatasetName)
	assert.Equal(t, int64(9), stats.MinUtil)
	assert.Equal(t, int64(5), stats.Candidates)
	assert.Equal(t, 3, stats.Patterns)
	assert.Equal(t, 2, stats.Transactions)
	assert.Equal(t, 2, stats.TransactionsAfterPrune)
	assert.Equal(t, 3, stats.SecondaryItems)
	assert.Equal(t, 3, stats.PrimaryItems)
}

func TestEfimLastItemUtility(t *testing.T) {
	// c is the highest ranked item and the last of every transaction holding it
	db := newMemDatabase(t, "a:1 c:7", "b:2 c:8", "a:3 b:1")

	pc, _, err := MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 1})
	require.NoError(t, err)
	results := resultMap(t, pc)
	assert.Equal(t, int64(15), results["c"])
	assert.Equal(t, int64(8), results["a c"])
	assert.Equal(t, bruteForce(db, 1), results)
}

func TestEfimItemBelowLocalUtilityIsPruned(t *testing.T) {
	db := newMemDatabase(t, "a:2 z:1", "b:2 z:1", "a:1 b:1 z:1")

	efim, err := NewEFIM(db, Options{MinUtil: 10})
	require.NoError(t, err)
	pc, err := efim.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, pc.Patterns)
	assert.Equal(t, 0, efim.oldNameToNewName[db.ids["z"]])
	assert.NotContains(t, efim.secondary, efim.oldNameToNewName[db.ids["z"]])
	assert.Equal(t, 0, efim.Stats().SecondaryItems)
	assert.Equal(t, 0, efim.Stats().TransactionsAfterPrune)

	// items whose utility stays low never reach a pattern
	db = newMemDatabase(t, "a:5 b:5 z:1", "a:6 b:4", "c:1 z:1")
	pc, _, err = MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 12})
	require.NoError(t, err)
	for _, p := range pc.Patterns {
		assert.NotContains(t, p.Items, "z")
		assert.NotContains(t, p.Items, "c")
	}
	assert.Equal(t, bruteForce(db, 12), resultMap(t, pc))
}

func TestEfimEmptyInput(t *testing.T) {
	db := newMemDatabase(t)
	pc, stats, err := MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 1})
	require.NoError(t, err)
	assert.Empty(t, pc.Patterns)
	assert.Equal(t, int64(0), stats.Candidates)

	db = newMemDatabase(t, "a:1", "b:1")
	pc, _, err = MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 100})
	require.NoError(t, err)
	assert.Empty(t, pc.Patterns)
}

func TestEfimInvalidInput(t *testing.T) {
	_, err := NewEFIM(nil, Options{MinUtil: 1})
	assert.Equal(t, ErrNilDataset, err)

	db := newMemDatabase(t, "a:1")
	_, err = NewEFIM(db, Options{MinUtil: 0})
	assert.Equal(t, ErrInvalidMinUtil, err)
	_, _, err = MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: -3})
	assert.Equal(t, ErrInvalidMinUtil, err)

	efim, err := NewEFIM(db, Options{MinUtil: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, efim.opts.NumRoutines)
	assert.Equal(t, DefaultMaxMergeSize, efim.opts.MaxMergeSize)
}

func TestEfimMatchesBruteForce(t *testing.T) {
	variants := map[string]Options{
		"base":       {},
		"nomerge":    {DisableMerging: true},
		"nosubtree":  {DisableSubtreePruning: true},
		"nothing":    {DisableMerging: true, DisableSubtreePruning: true},
		"smallmerge": {MaxMergeSize: 2},
		"parallel":   {NumRoutines: 4},
	}
	for seed := int64(1); seed <= 8; seed++ {
		db := randomDatabase(t, seed, 40, 8, 6)
		total := totalUtility(db)
		for _, fraction := range []int64{50, 20, 8, 4} {
			minUtil := total / fraction
			if minUtil < 1 {
				minUtil = 1
			}
			expected := bruteForce(db, minUtil)
			for name, opts := range variants {
				opts.MinUtil = minUtil
				pc, _, err := MineHighUtilityItemsets(context.Background(), db, opts)
				require.NoError(t, err)
				assert.Equal(t, expected, resultMap(t, pc), "seed %d min %d variant %s", seed, minUtil, name)
			}
		}
	}
}

func TestEfimDoesNotModifyDatabase(t *testing.T) {
	db := randomDatabase(t, 42, 30, 7, 5)
	snapshot := make([]Transaction, len(db.transactions))
	for i, trn := range db.transactions {
		snapshot[i] = Transaction{
			Items:              append([]int(nil), trn.Items...),
			Utilities:          append([]int64(nil), trn.Utilities...),
			TransactionUtility: trn.TransactionUtility,
		}
	}

	efim, err := NewEFIM(db, Options{MinUtil: totalUtility(db) / 10})
	require.NoError(t, err)
	first, err := efim.Run(context.Background())
	require.NoError(t, err)
	firstStats := efim.Stats()
	second, err := efim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Patterns, second.Patterns)
	assert.Equal(t, firstStats.Candidates, efim.Stats().Candidates)
	for i, trn := range db.transactions {
		assert.Equal(t, snapshot[i], *trn)
	}
}

func TestEfimParallelMatchesSequential(t *testing.T) {
	db := randomDatabase(t, 7, 200, 12, 8)
	minUtil := totalUtility(db) / 30

	sequential, seqStats, err := MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: minUtil})
	require.NoError(t, err)
	parallel, parStats, err := MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: minUtil, NumRoutines: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, sequential.Patterns)
	assert.Equal(t, sequential.Patterns, parallel.Patterns)
	assert.Equal(t, seqStats.Patterns, parStats.Patterns)
}

func TestEfimMergesIdenticalTransactions(t *testing.T) {
	db := newMemDatabase(t, "a:1 b:2 c:3", "a:2 b:2 c:2", "a:3 b:1 c:1", "b:1")

	_, stats, err := MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 1})
	require.NoError(t, err)
	assert.Greater(t, stats.Merges, int64(0))

	_, stats, err = MineHighUtilityItemsets(context.Background(), db, Options{MinUtil: 1, DisableMerging: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Merges)
}

func TestEfimRootBounds(t *testing.T) {
	db := randomDatabase(t, 3, 50, 8, 6)
	efim, err := NewEFIM(db, Options{MinUtil: 1})
	require.NoError(t, err)
	bins := efim.initialize()

	// the utility of an itemset is bounded by the subtree utility of its lowest ranked item
	best := make(map[int]int64)
	itemsets := make(map[string]int64)
	lowest := make(map[string]int)
	for _, trn := range efim.transactions {
		n := len(trn.Items)
		for mask := 1; mask < 1<<n; mask++ {
			var key strings.Builder
			var u int64
			first := -1
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					if first < 0 {
						first = trn.Items[i]
					}
					fmt.Fprintf(&key, "%d,", trn.Items[i])
					u += trn.Utilities[i]
				}
			}
			itemsets[key.String()] += u
			lowest[key.String()] = first
		}
	}
	for key, u := range itemsets {
		if u > best[lowest[key]] {
			best[lowest[key]] = u
		}
	}
	for _, item := range efim.secondary {
		assert.LessOrEqual(t, bins.su[item], bins.lu[item])
		assert.GreaterOrEqual(t, bins.su[item], best[item])
	}
}

func TestEfimContextCancelled(t *testing.T) {
	db := newMemDatabase(t, "a:6 b:4", "b:5 c:5")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, routines := range []int{1, 2} {
		_, _, err := MineHighUtilityItemsets(ctx, db, Options{MinUtil: 9, NumRoutines: routines})
		assert.True(t, errors.Is(err, context.Canceled))
	}
}
