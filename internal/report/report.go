// Package report renders summary statistics of the SV database.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"svdb/internal/importer"
	"svdb/internal/store"
)

// DefaultTopLimit is the number of entries shown in the top-N sections.
const DefaultTopLimit = 10

// Reporter writes a formatted database summary. It only reads from the
// store.
type Reporter struct {
	w   *bufio.Writer
	top int
}

// New creates a reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{
		w:   bufio.NewWriter(w),
		top: DefaultTopLimit,
	}
}

// SetTopLimit overrides the number of entries in the top-N sections.
func (r *Reporter) SetTopLimit(n int) {
	if n > 0 {
		r.top = n
	}
}

// WriteImportStats writes the file-level statistics of an import run.
// Called before Report when the report follows an import.
func (r *Reporter) WriteImportStats(sum *importer.Summary) {
	fmt.Fprintf(r.w, "File statistics:\n")
	fmt.Fprintf(r.w, "  - %d total variant lines processed\n", sum.TotalRows)
	fmt.Fprintf(r.w, "  - %d variant lines skipped (invalid data)\n", sum.SkippedRows)
	fmt.Fprintf(r.w, "  - %d full lines\n", sum.FullRows)
	fmt.Fprintf(r.w, "  - %d split lines\n", sum.SplitRows)
	fmt.Fprintf(r.w, "  - %d new SV records imported\n", sum.NewSVs)
	fmt.Fprintf(r.w, "  - %d rows linked to existing overlapping SVs\n", sum.LinkedSVs)
	fmt.Fprintf(r.w, "  - %d unique transcripts imported\n", sum.Transcripts)
	fmt.Fprintf(r.w, "\n")
}

// Report queries the store and writes all summary sections. Flushes the
// underlying writer when done.
func (r *Reporter) Report(s *store.Store) error {
	if err := r.writeTotals(s); err != nil {
		return err
	}
	if err := r.writeDistribution(s); err != nil {
		return err
	}
	if err := r.writeSampleCounts(s); err != nil {
		return err
	}
	if err := r.writeTopGenes(s); err != nil {
		return err
	}
	if err := r.writeTopTranscripts(s); err != nil {
		return err
	}
	if err := r.writeFrameshifts(s); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *Reporter) writeTotals(s *store.Store) error {
	t, err := s.Totals()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.w, "Database totals:\n")
	fmt.Fprintf(r.w, "  - %d samples\n", t.Samples)
	fmt.Fprintf(r.w, "  - %d genes\n", t.Genes)
	fmt.Fprintf(r.w, "  - %d transcripts\n", t.Transcripts)
	fmt.Fprintf(r.w, "  - %d SVs\n", t.SVs)
	fmt.Fprintf(r.w, "  - %d SV-sample relationships\n", t.SampleLinks)
	fmt.Fprintf(r.w, "  - %d SV-gene relationships\n", t.GeneLinks)
	fmt.Fprintf(r.w, "  - %d SV-transcript relationships\n", t.TxLinks)
	return nil
}

func (r *Reporter) writeDistribution(s *store.Store) error {
	bins, err := s.SVSampleDistribution()
	if err != nil {
		return err
	}
	if len(bins) == 0 {
		return nil
	}

	fmt.Fprintf(r.w, "\nSV frequency across samples:\n")
	var total int
	var parts []string
	for _, b := range bins {
		fmt.Fprintf(r.w, "  - %d SV(s) present in %d sample(s)\n", b.SVCount, b.SampleCount)
		total += b.SVCount * b.SampleCount
		parts = append(parts, fmt.Sprintf("%dx%d", b.SVCount, b.SampleCount))
	}
	fmt.Fprintf(r.w, "  = %d relations (%s)\n", total, strings.Join(parts, " + "))
	return nil
}

func (r *Reporter) writeSampleCounts(s *store.Store) error {
	counts, err := s.SampleSVCounts()
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	fmt.Fprintf(r.w, "\nSamples by SV count:\n")
	for _, c := range counts {
		name := c.SampleID
		if name == "NA" || name == "" {
			name = "NA (unassigned)"
		}
		fmt.Fprintf(r.w, "  - %s: %d SVs\n", name, c.SVCount)
	}
	return nil
}

func (r *Reporter) writeTopGenes(s *store.Store) error {
	genes, err := s.TopGenes(r.top)
	if err != nil {
		return err
	}
	if len(genes) == 0 {
		return nil
	}

	fmt.Fprintf(r.w, "\nGenes most frequently affected by SVs:\n")
	for _, g := range genes {
		fmt.Fprintf(r.w, "  - %s: %d SVs\n", g.GeneName, g.SVCount)
	}
	return nil
}

func (r *Reporter) writeTopTranscripts(s *store.Store) error {
	txs, err := s.TopTranscripts(r.top)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}

	fmt.Fprintf(r.w, "\nTranscripts most frequently affected by SVs:\n")
	for _, t := range txs {
		name := t.TxName
		if t.TxVersion != "" {
			name = fmt.Sprintf("%s v%s", t.TxName, t.TxVersion)
		}
		overlap := ""
		if t.AvgCDSOverlap.Valid {
			overlap = fmt.Sprintf(" (avg CDS overlap: %.1f%%)", t.AvgCDSOverlap.Float64)
		}
		fmt.Fprintf(r.w, "  - %s: %d SVs%s\n", name, t.SVCount, overlap)
	}
	return nil
}

func (r *Reporter) writeFrameshifts(s *store.Store) error {
	svs, err := s.FrameshiftSVs(r.top)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.w, "\nSVs causing frameshifts:\n")
	if len(svs) == 0 {
		fmt.Fprintf(r.w, "  - No frameshifts detected\n")
		return nil
	}
	for _, f := range svs {
		fmt.Fprintf(r.w, "  - %s: causes frameshift in %d transcript(s)\n",
			f.AnnotSVID, f.AffectedTranscripts)
	}
	return nil
}
