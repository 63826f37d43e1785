// Package annotsv provides AnnotSV output file parsing functionality.
package annotsv

import (
	"database/sql"
	"strconv"
	"strings"
)

// Annotation modes used by AnnotSV. A "full" line describes the SV itself;
// a "split" line describes one gene/transcript overlapped by it.
const (
	ModeFull  = "full"
	ModeSplit = "split"
)

// Record holds one parsed AnnotSV line.
type Record struct {
	AnnotSVID string
	Chrom     string
	Start     int64
	End       int64
	Type      string
	Mode      string

	// Samples carries the normalized Samples_ID list. Empty entries
	// collapse to "NA"; the list always has at least one element.
	Samples []string

	// Split-line fields.
	GeneName  string
	TxName    string
	TxVersion string
	TxStart   int64
	TxEnd     int64
	HasTx     bool
	TxLink    TxLink
}

// TxLink holds the SV-transcript association detail columns from a split
// line. Blank or unparsable numeric values stay null.
type TxLink struct {
	OverlappedTxLength   sql.NullInt64
	OverlappedCDSLength  sql.NullInt64
	OverlappedCDSPercent sql.NullFloat64
	Frameshift           string
	ExonCount            sql.NullInt64
	Location             string
	Location2            string
	DistNearestSS        sql.NullInt64
	NearestSSType        string
	IntersectStart       sql.NullInt64
	IntersectEnd         sql.NullInt64
}

// IsFrameshift reports whether the association is flagged as frameshift.
func (l TxLink) IsFrameshift() bool {
	return strings.EqualFold(l.Frameshift, "yes")
}

// NormalizeMode validates an Annotation_mode value, returning ModeFull or
// ModeSplit, or false if the value is neither.
func NormalizeMode(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ModeFull:
		return ModeFull, true
	case ModeSplit:
		return ModeSplit, true
	}
	return "", false
}

// ParseSamples splits a comma-separated Samples_ID value into individual
// sample IDs. Every empty entry normalizes to "NA", so the result always
// has one element per comma-separated field and an empty value yields ["NA"].
func ParseSamples(s string) []string {
	parts := strings.Split(s, ",")
	samples := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			part = "NA"
		}
		samples = append(samples, part)
	}
	return samples
}

// parseNullInt parses an optional integer column value.
func parseNullInt(s string) sql.NullInt64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// AnnotSV sometimes writes integer columns as floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return sql.NullInt64{}
		}
		n = int64(f)
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

// parseNullFloat parses an optional float column value.
func parseNullFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
