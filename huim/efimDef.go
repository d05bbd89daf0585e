package huim

import "time"

// Transaction is one record of the database. Items are kept sorted ascending in the
// active numbering and Utilities is parallel to Items.
//
// A projected transaction shares Items/Utilities with its parent and only moves Offset
// forward. TransactionUtility always equals the sum of Utilities[Offset:].
type Transaction struct {
	Items              []int
	Utilities          []int64
	TransactionUtility int64
	PrefixUtility      int64
	Offset             int
}

// Database is the input of a mining run.
type Database interface {
	GetName() string
	GetTransactions() []*Transaction
	GetMaxItem() int
	Label(item int) string
}

type Options struct {
	MinUtil int64 `json:"mu"`
	// NumRoutines > 1 explores the top level branches concurrently.
	NumRoutines int `json:"nr"`
	// Projections longer than MaxMergeSize from their offset are never merged.
	MaxMergeSize          int  `json:"mms"`
	DisableMerging        bool `json:"dm"`
	DisableSubtreePruning bool `json:"dsp"`
}

type PatternUtility struct {
	Items   []string `json:"pi"`
	Utility int64    `json:"pu"`
}

type PatternContainer struct {
	Patterns         []PatternUtility         `json:"pts"`
	PatternsByLength map[int][]PatternUtility `json:"pbl"`
}

type RunStats struct {
	DatasetName            string        `json:"dn"`
	MinUtil                int64         `json:"mu"`
	Candidates             int64         `json:"cc"`
	Patterns               int           `json:"pc"`
	Merges                 int64         `json:"mc"`
	Transactions           int           `json:"tc"`
	TransactionsAfterPrune int           `json:"tp"`
	SecondaryItems         int           `json:"si"`
	PrimaryItems           int           `json:"pi"`
	Elapsed                time.Duration `json:"el"`
	MaxMemory              uint64        `json:"mm"`
}
