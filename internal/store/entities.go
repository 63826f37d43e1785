package store

import (
	"database/sql"
	"fmt"

	"svdb/internal/annotsv"
)

// UpsertSample inserts a sample if it does not exist yet. Samples are
// never mutated after creation.
func (s *Store) UpsertSample(sampleID string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO samples (sample_id) VALUES (?)", sampleID)
	if err != nil {
		return fmt.Errorf("insert sample %q: %w", sampleID, err)
	}
	return nil
}

// GetOrCreateGene returns the gene_id for a gene name, creating the gene
// row if needed.
func (s *Store) GetOrCreateGene(geneName string) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		"SELECT gene_id FROM genes WHERE gene_name = ?", geneName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("query gene %q: %w", geneName, err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO genes (gene_name) VALUES (?)", geneName); err != nil {
		return 0, fmt.Errorf("insert gene %q: %w", geneName, err)
	}
	err = s.db.QueryRow(
		"SELECT gene_id FROM genes WHERE gene_name = ?", geneName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reread gene %q: %w", geneName, err)
	}
	return id, nil
}

// GetOrCreateTranscript returns the tx_id for a transcript name+version,
// creating the row if needed. An empty version is stored as NULL.
func (s *Store) GetOrCreateTranscript(name, version string, start, end int64) (int64, error) {
	const lookup = `
		SELECT tx_id FROM tx
		WHERE tx_name = ? AND (tx_version = ? OR (tx_version IS NULL AND ? IS NULL))
	`
	ver := nullString(version)

	var id int64
	err := s.db.QueryRow(lookup, name, ver, ver).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("query transcript %q: %w", name, err)
	}

	if _, err := s.db.Exec(`
		INSERT INTO tx (tx_name, tx_version, tx_start, tx_end)
		VALUES (?, ?, ?, ?)
	`, name, ver, start, end); err != nil {
		return 0, fmt.Errorf("insert transcript %q: %w", name, err)
	}
	err = s.db.QueryRow(lookup, name, ver, ver).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reread transcript %q: %w", name, err)
	}
	return id, nil
}

// LinkSample attaches a sample to an SV.
func (s *Store) LinkSample(svID int64, sampleID string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO sv_samples (sv_id, sample_id) VALUES (?, ?)",
		svID, sampleID)
	if err != nil {
		return fmt.Errorf("link sv %d to sample %q: %w", svID, sampleID, err)
	}
	return nil
}

// LinkGene attaches a gene to an SV.
func (s *Store) LinkGene(svID, geneID int64) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO sv_genes (sv_id, gene_id) VALUES (?, ?)",
		svID, geneID)
	if err != nil {
		return fmt.Errorf("link sv %d to gene %d: %w", svID, geneID, err)
	}
	return nil
}

// LinkTranscript attaches a transcript to an SV together with the overlap
// detail columns from the split line.
func (s *Store) LinkTranscript(svID, txID int64, l annotsv.TxLink) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO sv_tx (
			sv_id, tx_id, overlapped_tx_length, overlapped_cds_length,
			overlapped_cds_percent, frameshift, exon_count, location,
			location2, dist_nearest_ss, nearest_ss_type, intersect_start,
			intersect_end
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, svID, txID, l.OverlappedTxLength, l.OverlappedCDSLength,
		l.OverlappedCDSPercent, nullString(l.Frameshift), l.ExonCount,
		nullString(l.Location), nullString(l.Location2), l.DistNearestSS,
		nullString(l.NearestSSType), l.IntersectStart, l.IntersectEnd)
	if err != nil {
		return fmt.Errorf("link sv %d to transcript %d: %w", svID, txID, err)
	}
	return nil
}
