package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Totals holds aggregate row counts across the database.
type Totals struct {
	Samples     int
	Genes       int
	Transcripts int
	SVs         int
	SampleLinks int
	GeneLinks   int
	TxLinks     int
}

// Totals returns aggregate counts for every table.
func (s *Store) Totals() (Totals, error) {
	var t Totals
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM samples", &t.Samples},
		{"SELECT COUNT(*) FROM genes", &t.Genes},
		{"SELECT COUNT(*) FROM tx", &t.Transcripts},
		{"SELECT COUNT(*) FROM sv", &t.SVs},
		{"SELECT COUNT(*) FROM sv_samples", &t.SampleLinks},
		{"SELECT COUNT(*) FROM sv_genes", &t.GeneLinks},
		{"SELECT COUNT(*) FROM sv_tx", &t.TxLinks},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Totals{}, fmt.Errorf("count query %q: %w", c.query, err)
		}
	}
	return t, nil
}

// DistributionBin is one bucket of the SV-per-sample-count distribution:
// SVCount structural variants are each present in SampleCount samples.
type DistributionBin struct {
	SampleCount int
	SVCount     int
}

// SVSampleDistribution returns how many SVs are shared by how many samples.
func (s *Store) SVSampleDistribution() ([]DistributionBin, error) {
	rows, err := s.db.Query(`
		SELECT sample_count, COUNT(*) AS sv_count
		FROM (
			SELECT v.sv_id, COUNT(ss.sample_id) AS sample_count
			FROM sv v
			JOIN sv_samples ss ON v.sv_id = ss.sv_id
			WHERE v.annotation_mode = 'full'
			GROUP BY v.sv_id
		) per_sv
		GROUP BY sample_count
		ORDER BY sample_count
	`)
	if err != nil {
		return nil, fmt.Errorf("query sv-sample distribution: %w", err)
	}
	defer rows.Close()

	var bins []DistributionBin
	for rows.Next() {
		var b DistributionBin
		if err := rows.Scan(&b.SampleCount, &b.SVCount); err != nil {
			return nil, fmt.Errorf("scan distribution bin: %w", err)
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

// SampleSVCount holds the number of distinct SVs seen in one sample.
type SampleSVCount struct {
	SampleID string
	SVCount  int
}

// SampleSVCounts returns per-sample SV counts, most affected first.
func (s *Store) SampleSVCounts() ([]SampleSVCount, error) {
	rows, err := s.db.Query(`
		SELECT s.sample_id, COUNT(DISTINCT ss.sv_id) AS sv_count
		FROM samples s
		LEFT JOIN sv_samples ss ON s.sample_id = ss.sample_id
		GROUP BY s.sample_id
		ORDER BY sv_count DESC, s.sample_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query sample sv counts: %w", err)
	}
	defer rows.Close()

	var counts []SampleSVCount
	for rows.Next() {
		var c SampleSVCount
		if err := rows.Scan(&c.SampleID, &c.SVCount); err != nil {
			return nil, fmt.Errorf("scan sample sv count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GeneSVCount holds the number of distinct SVs overlapping one gene.
type GeneSVCount struct {
	GeneName string
	SVCount  int
}

// TopGenes returns the genes most frequently affected by SVs.
func (s *Store) TopGenes(limit int) ([]GeneSVCount, error) {
	rows, err := s.db.Query(`
		SELECT g.gene_name, COUNT(DISTINCT sg.sv_id) AS sv_count
		FROM genes g
		LEFT JOIN sv_genes sg ON g.gene_id = sg.gene_id
		GROUP BY g.gene_id, g.gene_name
		HAVING COUNT(DISTINCT sg.sv_id) > 0
		ORDER BY sv_count DESC, g.gene_name
		LIMIT ` + strconv.Itoa(limit))
	if err != nil {
		return nil, fmt.Errorf("query top genes: %w", err)
	}
	defer rows.Close()

	var counts []GeneSVCount
	for rows.Next() {
		var c GeneSVCount
		if err := rows.Scan(&c.GeneName, &c.SVCount); err != nil {
			return nil, fmt.Errorf("scan gene sv count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TranscriptSVCount holds the number of distinct SVs overlapping one
// transcript, with the average overlapped-CDS percentage when recorded.
type TranscriptSVCount struct {
	TxName        string
	TxVersion     string
	SVCount       int
	AvgCDSOverlap sql.NullFloat64
}

// TopTranscripts returns the transcripts most frequently affected by SVs.
func (s *Store) TopTranscripts(limit int) ([]TranscriptSVCount, error) {
	rows, err := s.db.Query(`
		SELECT t.tx_name, COALESCE(t.tx_version, ''),
		       COUNT(DISTINCT st.sv_id) AS sv_count,
		       AVG(st.overlapped_cds_percent) AS avg_cds_overlap
		FROM tx t
		JOIN sv_tx st ON t.tx_id = st.tx_id
		GROUP BY t.tx_id, t.tx_name, t.tx_version
		ORDER BY sv_count DESC, t.tx_name
		LIMIT ` + strconv.Itoa(limit))
	if err != nil {
		return nil, fmt.Errorf("query top transcripts: %w", err)
	}
	defer rows.Close()

	var counts []TranscriptSVCount
	for rows.Next() {
		var c TranscriptSVCount
		if err := rows.Scan(&c.TxName, &c.TxVersion, &c.SVCount, &c.AvgCDSOverlap); err != nil {
			return nil, fmt.Errorf("scan transcript sv count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// FrameshiftSV holds one SV flagged as frameshift-causing and the number
// of transcripts it disrupts.
type FrameshiftSV struct {
	AnnotSVID           string
	AffectedTranscripts int
}

// FrameshiftSVs returns SVs causing frameshifts, ordered by the number of
// affected transcripts.
func (s *Store) FrameshiftSVs(limit int) ([]FrameshiftSV, error) {
	rows, err := s.db.Query(`
		SELECT v.annotsv_id, COUNT(DISTINCT st.tx_id) AS affected
		FROM sv v
		JOIN sv_tx st ON v.sv_id = st.sv_id
		WHERE lower(st.frameshift) = 'yes'
		GROUP BY v.sv_id, v.annotsv_id
		ORDER BY affected DESC, v.annotsv_id
		LIMIT ` + strconv.Itoa(limit))
	if err != nil {
		return nil, fmt.Errorf("query frameshift svs: %w", err)
	}
	defer rows.Close()

	var svs []FrameshiftSV
	for rows.Next() {
		var f FrameshiftSV
		if err := rows.Scan(&f.AnnotSVID, &f.AffectedTranscripts); err != nil {
			return nil, fmt.Errorf("scan frameshift sv: %w", err)
		}
		svs = append(svs, f)
	}
	return svs, rows.Err()
}
