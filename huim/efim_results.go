package huim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const patternUtilitySeparator = " : "

// WriteResults dumps one pattern per line as "label_1 ... label_k : utility".
func WriteResults(w io.Writer, pc PatternContainer) error {
	bw := bufio.NewWriter(w)
	for _, p := range pc.Patterns {
		if _, err := fmt.Fprintf(bw, "%s%s%d\n", strings.Join(p.Items, " "), patternUtilitySeparator, p.Utility); err != nil {
			return errors.Wrap(err, "writing pattern")
		}
	}
	return bw.Flush()
}

// ParseResults reads a dump written by WriteResults.
func ParseResults(r io.Reader) ([]PatternUtility, error) {
	patterns := make([]PatternUtility, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, patternUtilitySeparator)
		if idx < 0 {
			return nil, fmt.Errorf("line %d: missing utility in %q", lineNum, line)
		}
		utility, err := strconv.ParseInt(strings.TrimSpace(line[idx+len(patternUtilitySeparator):]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad utility", lineNum)
		}
		patterns = append(patterns, PatternUtility{
			Items:   strings.Fields(line[:idx]),
			Utility: utility,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading results")
	}
	return patterns, nil
}

func WriteStats(w io.Writer, stats RunStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(stats), "writing stats")
}

func (s RunStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "============= EFIM - STATS =============\n")
	fmt.Fprintf(&b, " Dataset : %s\n", s.DatasetName)
	fmt.Fprintf(&b, " Min utility : %s\n", humanize.Comma(s.MinUtil))
	fmt.Fprintf(&b, " Transactions : %s (%s after pruning)\n",
		humanize.Comma(int64(s.Transactions)), humanize.Comma(int64(s.TransactionsAfterPrune)))
	fmt.Fprintf(&b, " Items : %d secondary, %d primary\n", s.SecondaryItems, s.PrimaryItems)
	fmt.Fprintf(&b, " Candidates : %s\n", humanize.Comma(s.Candidates))
	fmt.Fprintf(&b, " Merges : %s\n", humanize.Comma(s.Merges))
	fmt.Fprintf(&b, " High-utility itemsets : %s\n", humanize.Comma(int64(s.Patterns)))
	fmt.Fprintf(&b, " Total time : %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, " Max memory : %s\n", humanize.Bytes(s.MaxMemory))
	fmt.Fprintf(&b, "========================================")
	return b.String()
}
