// Package store manages the svdb relational database: samples, genes,
// transcripts and structural variants with their junction tables, backed
// by a DuckDB file.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the SV database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// CreateSchema creates all tables, sequences and indexes. Safe to call on
// an existing database.
func (s *Store) CreateSchema() error {
	schema := `
		CREATE SEQUENCE IF NOT EXISTS seq_gene_id;
		CREATE SEQUENCE IF NOT EXISTS seq_sv_id;
		CREATE SEQUENCE IF NOT EXISTS seq_tx_id;

		CREATE TABLE IF NOT EXISTS samples (
			sample_id VARCHAR PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS genes (
			gene_id BIGINT PRIMARY KEY DEFAULT nextval('seq_gene_id'),
			gene_name VARCHAR NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS sv (
			sv_id BIGINT PRIMARY KEY DEFAULT nextval('seq_sv_id'),
			annotsv_id VARCHAR NOT NULL,
			chrom VARCHAR NOT NULL,
			sv_start BIGINT NOT NULL,
			sv_end BIGINT NOT NULL,
			sv_type VARCHAR NOT NULL,
			annotation_mode VARCHAR NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tx (
			tx_id BIGINT PRIMARY KEY DEFAULT nextval('seq_tx_id'),
			tx_name VARCHAR NOT NULL,
			tx_version VARCHAR,
			tx_start BIGINT NOT NULL,
			tx_end BIGINT NOT NULL,
			UNIQUE (tx_name, tx_version)
		);

		CREATE TABLE IF NOT EXISTS sv_samples (
			sv_id BIGINT NOT NULL,
			sample_id VARCHAR NOT NULL,
			PRIMARY KEY (sv_id, sample_id)
		);

		CREATE TABLE IF NOT EXISTS sv_genes (
			sv_id BIGINT NOT NULL,
			gene_id BIGINT NOT NULL,
			PRIMARY KEY (sv_id, gene_id)
		);

		CREATE TABLE IF NOT EXISTS sv_tx (
			sv_id BIGINT NOT NULL,
			tx_id BIGINT NOT NULL,
			overlapped_tx_length BIGINT,
			overlapped_cds_length BIGINT,
			overlapped_cds_percent DOUBLE,
			frameshift VARCHAR,
			exon_count BIGINT,
			location VARCHAR,
			location2 VARCHAR,
			dist_nearest_ss BIGINT,
			nearest_ss_type VARCHAR,
			intersect_start BIGINT,
			intersect_end BIGINT,
			PRIMARY KEY (sv_id, tx_id)
		);

		CREATE INDEX IF NOT EXISTS idx_sv_annotsv ON sv(annotsv_id);
		CREATE INDEX IF NOT EXISTS idx_sv_position ON sv(chrom, sv_start, sv_end);
		CREATE INDEX IF NOT EXISTS idx_genes_name ON genes(gene_name);
		CREATE INDEX IF NOT EXISTS idx_tx_name ON tx(tx_name);
		CREATE INDEX IF NOT EXISTS idx_tx_position ON tx(tx_start, tx_end);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// nullString returns nil if s is empty, otherwise s.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
