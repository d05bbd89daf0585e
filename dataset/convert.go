package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Format string

const (
	// item -1 item -1 ... -2, as in the BMS click streams.
	FormatSequence Format = "sequence"
	// plain space separated items, as in accidents.
	FormatItemList Format = "itemlist"
	// items:total:utilities:timestamp, as in the mushroom utility file.
	FormatTimestamped Format = "timestamped"

	ConvertedExtension = ".ds"

	sequenceItemEnd        = "-1"
	sequenceTransactionEnd = "-2"
)

var ErrUnknownFormat = errors.New("unknown dataset format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSequence, FormatItemList, FormatTimestamped:
		return f, nil
	default:
		return "", errors.Wrap(ErrUnknownFormat, s)
	}
}

// ConvertedFileName is the name of the converted file of path, its base name with the
// .ds extension.
func ConvertedFileName(path string) string {
	return NameFromPath(path) + ConvertedExtension
}

// Convert rewrites r in the items:total:utilities format. Items of the sequence and
// item list formats get a utility of 1. Lines are separated by a newline with none
// after the last one. Returns the number of transactions written.
func Convert(r io.Reader, w io.Writer, format Format) (int, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineCapacity)
	bw := bufio.NewWriter(w)

	written := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, commentPrefix) {
			continue
		}
		var line string
		switch format {
		case FormatSequence:
			line = unitUtilityLine(sequenceItems(raw))
		case FormatItemList:
			line = unitUtilityLine(strings.Fields(raw))
		case FormatTimestamped:
			idx := strings.LastIndex(raw, sectionSeparator)
			if idx < 0 {
				return written, &ParseError{Line: lineNum, Field: "timestamp", Err: ErrMissingSection}
			}
			line = raw[:idx]
		default:
			return written, errors.Wrap(ErrUnknownFormat, string(format))
		}
		if line == "" {
			continue
		}

		if written > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return written, err
			}
		}
		if _, err := bw.WriteString(line); err != nil {
			return written, err
		}
		written++
		if written%100000 == 0 {
			log.WithField("lines", written).Debug("Converting dataset.")
		}
	}
	if err := scanner.Err(); err != nil {
		return written, errors.Wrap(err, "reading dataset to convert")
	}
	return written, bw.Flush()
}

func sequenceItems(line string) []string {
	items := make([]string, 0)
	for _, token := range strings.Fields(line) {
		if token == sequenceItemEnd {
			continue
		}
		if token == sequenceTransactionEnd {
			break
		}
		items = append(items, token)
	}
	return items
}

func unitUtilityLine(items []string) string {
	if len(items) == 0 {
		return ""
	}
	units := strings.TrimSuffix(strings.Repeat("1 ", len(items)), " ")
	return fmt.Sprintf("%s:%d:%s", strings.Join(items, " "), len(items), units)
}
