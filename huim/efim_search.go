package huim

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// searchState is owned by one depth first search. Concurrent branches each get
// their own bins and prefix buffer.
type searchState struct {
	efim       *EFIM
	bins       *utilityBins
	prefix     []int
	candidates int64
	merges     int64
}

func (e *EFIM) newSearchState(bins *utilityBins) *searchState {
	if bins == nil {
		bins = newUtilityBins(len(e.secondary))
	}
	return &searchState{
		efim:   e,
		bins:   bins,
		prefix: make([]int, len(e.secondary)+1),
	}
}

func (s *searchState) backtrack(ctx context.Context, transactionsOfP []*Transaction,
	secondary, primary []int, prefixLength int) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range primary {
		if err := s.extend(ctx, transactionsOfP, secondary, e, prefixLength, true); err != nil {
			return err
		}
	}
	return nil
}

// extend explores prefix+e. With moveOffsets the offsets of transactionsOfP are
// moved up to e, which is only safe when no other branch reads them.
func (s *searchState) extend(ctx context.Context, transactionsOfP []*Transaction,
	secondary []int, e int, prefixLength int, moveOffsets bool) error {

	s.candidates++
	transactionsPe, utilityPe := s.project(transactionsOfP, e, moveOffsets)

	if utilityPe >= s.efim.opts.MinUtil {
		s.efim.output(s.prefix, prefixLength, e, utilityPe)
	}
	if len(transactionsPe) == 0 {
		return nil
	}

	j := sort.SearchInts(secondary, e)
	following := secondary[j+1:]
	s.bins.computeBounds(transactionsPe, following)
	newSecondary, newPrimary := s.bins.filterItems(following, s.efim.opts.MinUtil,
		!s.efim.opts.DisableSubtreePruning)
	if len(newPrimary) == 0 {
		return nil
	}

	s.prefix[prefixLength] = e
	return s.backtrack(ctx, transactionsPe, newSecondary, newPrimary, prefixLength+1)
}

// project builds the projected database of e and the exact utility of prefix+e.
// Consecutive projections with equal items are merged into one transaction.
func (s *searchState) project(transactionsOfP []*Transaction, e int, moveOffsets bool) ([]*Transaction, int64) {
	opts := s.efim.opts
	transactionsPe := make([]*Transaction, 0)
	var utilityPe int64
	var previous *Transaction
	consecutiveMerges := 0

	for _, t := range transactionsOfP {
		pos, found := t.Position(e)
		if !found {
			if moveOffsets {
				t.AdvanceTo(pos)
			}
			continue
		}

		if pos == t.LastPosition() {
			utilityPe += t.Utilities[pos] + t.PrefixUtility
		} else {
			projected := t.Project(pos)
			utilityPe += projected.PrefixUtility

			if opts.DisableMerging || len(t.Items)-pos > opts.MaxMergeSize {
				transactionsPe = append(transactionsPe, projected)
			} else if previous == nil {
				previous = projected
			} else if previous.SameSuffix(projected) {
				if consecutiveMerges == 0 {
					previous = previous.ownedCopy()
				}
				previous.absorb(projected)
				consecutiveMerges++
				s.merges++
			} else {
				transactionsPe = append(transactionsPe, previous)
				previous = projected
				consecutiveMerges = 0
			}
		}
		if moveOffsets {
			t.AdvanceTo(pos)
		}
	}
	if previous != nil {
		transactionsPe = append(transactionsPe, previous)
	}
	return transactionsPe, utilityPe
}

// searchConcurrently explores every first level extension as its own branch. The
// root transactions are only read by the branches.
func (e *EFIM) searchConcurrently(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.NumRoutines)
	log.WithField("routines", e.opts.NumRoutines).Debug("Efim exploring branches concurrently.")

	for _, item := range e.primary {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := e.newSearchState(nil)
			err := s.extend(gctx, e.transactions, e.secondary, item, 0, false)
			e.collectCounters(s)
			return err
		})
	}
	return g.Wait()
}
