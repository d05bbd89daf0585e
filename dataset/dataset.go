package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"efim/huim"
	"efim/util"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSeparator = " "
	commentPrefix    = "#"
	sectionSeparator = ":"
	// 10 MB per line.
	maxLineCapacity = 10 * 1024 * 1024
)

// ParseError points at the line and field of a malformed transaction.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
func (e *ParseError) Cause() error  { return e.Err }

var (
	ErrMissingSection  = errors.New("expected items:total:utilities")
	ErrCountMismatch   = errors.New("items and utilities differ in count")
	ErrNegativeUtility = errors.New("utility must not be negative")
)

// Dataset holds the transactions of an input file with items numbered in order of
// first appearance, starting at 1.
type Dataset struct {
	Name         string
	Separator    string
	Transactions []*huim.Transaction
	StrToInt     map[string]int
	IntToStr     map[int]string
	Cnt          int
	MaxItem      int
}

func NewDataset(name, separator string) *Dataset {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Dataset{
		Name:         name,
		Separator:    separator,
		Transactions: make([]*huim.Transaction, 0),
		StrToInt:     make(map[string]int),
		IntToStr:     make(map[int]string),
		Cnt:          1,
	}
}

func (d *Dataset) GetName() string                      { return d.Name }
func (d *Dataset) GetTransactions() []*huim.Transaction { return d.Transactions }
func (d *Dataset) GetMaxItem() int                      { return d.MaxItem }
func (d *Dataset) Label(item int) string                { return d.IntToStr[item] }

func (d *Dataset) String() string {
	return fmt.Sprintf("Dataset(%d transactions, %d items, max item=%d)",
		len(d.Transactions), len(d.StrToInt), d.MaxItem)
}

// NameFromPath is the file name without its extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ReadDatasetFromFile(path, separator string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %s", path)
	}
	defer file.Close()
	return ReadDatasetFromReader(NameFromPath(path), file, separator)
}

// ReadDatasetFromReader parses every line of r. The first malformed line aborts the
// read and no dataset is returned.
func ReadDatasetFromReader(name string, r io.Reader, separator string) (*Dataset, error) {
	d := NewDataset(name, separator)
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := d.AddLine(lineNum, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", name)
	}
	log.WithFields(log.Fields{"dataset": name, "lines": lineNum}).Debug(d.String())
	return d, nil
}

// AddLine parses "items:total:utilities" into a transaction. Comment and blank lines
// are skipped, a trailing fourth section is ignored.
func (d *Dataset) AddLine(lineNum int, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return nil
	}
	sections := strings.Split(line, sectionSeparator)
	if len(sections) < 3 {
		return &ParseError{Line: lineNum, Field: "sections", Err: ErrMissingSection}
	}

	itemTokens := util.SplitAndTrim(sections[0], d.Separator)
	utilityTokens := util.SplitAndTrim(sections[2], d.Separator)
	if len(itemTokens) != len(utilityTokens) {
		return &ParseError{Line: lineNum, Field: "items",
			Err: errors.Wrapf(ErrCountMismatch, "%d items, %d utilities", len(itemTokens), len(utilityTokens))}
	}
	declared, err := strconv.ParseInt(strings.TrimSpace(sections[1]), 10, 64)
	if err != nil {
		return &ParseError{Line: lineNum, Field: "total utility", Err: err}
	}

	items := make([]int, 0, len(itemTokens))
	utilities := make([]int64, 0, len(itemTokens))
	positions := make(map[int]int, len(itemTokens))
	for idx, label := range itemTokens {
		utility, err := strconv.ParseInt(utilityTokens[idx], 10, 64)
		if err != nil {
			return &ParseError{Line: lineNum, Field: fmt.Sprintf("utility of %s", label), Err: err}
		}
		if utility < 0 {
			return &ParseError{Line: lineNum, Field: fmt.Sprintf("utility of %s", label),
				Err: errors.Wrapf(ErrNegativeUtility, "%d", utility)}
		}
		item := d.itemID(label)
		if pos, ok := positions[item]; ok {
			utilities[pos] += utility
			continue
		}
		positions[item] = len(items)
		items = append(items, item)
		utilities = append(utilities, utility)
	}

	transaction := huim.NewTransaction(items, utilities)
	if transaction.TransactionUtility != declared {
		log.WithFields(log.Fields{
			"dataset":  d.Name,
			"line":     lineNum,
			"declared": declared,
			"computed": transaction.TransactionUtility,
		}).Warn("Transaction utility differs from the sum of its items. Using the sum.")
	}
	d.Transactions = append(d.Transactions, transaction)
	return nil
}

func (d *Dataset) itemID(label string) int {
	if id, ok := d.StrToInt[label]; ok {
		return id
	}
	id := d.Cnt
	d.StrToInt[label] = id
	d.IntToStr[id] = label
	d.Cnt++
	if id > d.MaxItem {
		d.MaxItem = id
	}
	return id
}
