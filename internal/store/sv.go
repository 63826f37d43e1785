package store

import (
	"database/sql"
	"fmt"
)

// SV is a stored structural variant row.
type SV struct {
	ID        int64
	AnnotSVID string
	Chrom     string
	Start     int64
	End       int64
	Type      string
	Mode      string
}

// Length returns the interval length of the SV.
func (v *SV) Length() int64 {
	return v.End - v.Start
}

// InsertSV inserts a new SV row and returns its sv_id.
func (s *Store) InsertSV(v *SV) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO sv (annotsv_id, chrom, sv_start, sv_end, sv_type, annotation_mode)
		VALUES (?, ?, ?, ?, ?, ?)
	`, v.AnnotSVID, v.Chrom, v.Start, v.End, v.Type, v.Mode)
	if err != nil {
		return 0, fmt.Errorf("insert sv %q: %w", v.AnnotSVID, err)
	}

	var id int64
	err = s.db.QueryRow(`
		SELECT sv_id FROM sv WHERE annotsv_id = ? AND annotation_mode = ?
	`, v.AnnotSVID, v.Mode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reread sv %q: %w", v.AnnotSVID, err)
	}
	v.ID = id
	return id, nil
}

// SVByAnnotSVID returns the full-mode SV with the given AnnotSV ID, or nil
// if it does not exist.
func (s *Store) SVByAnnotSVID(annotsvID string) (*SV, error) {
	row := s.db.QueryRow(`
		SELECT sv_id, annotsv_id, chrom, sv_start, sv_end, sv_type, annotation_mode
		FROM sv
		WHERE annotsv_id = ? AND annotation_mode = 'full'
	`, annotsvID)

	v := &SV{}
	err := row.Scan(&v.ID, &v.AnnotSVID, &v.Chrom, &v.Start, &v.End, &v.Type, &v.Mode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan sv %q: %w", annotsvID, err)
	}
	return v, nil
}

// FindOverlapping returns the stored SV of the same chromosome and type
// whose reciprocal overlap with [start, end) exceeds minFrac, or nil when
// no such SV exists. When several qualify, the one with the largest
// overlap fraction wins.
func (s *Store) FindOverlapping(chrom, svType string, start, end int64, minFrac float64) (*SV, error) {
	rows, err := s.db.Query(`
		SELECT sv_id, annotsv_id, chrom, sv_start, sv_end, sv_type, annotation_mode
		FROM sv
		WHERE chrom = ? AND sv_type = ? AND annotation_mode = 'full'
		  AND sv_start < ? AND sv_end > ?
		ORDER BY sv_start
	`, chrom, svType, end, start)
	if err != nil {
		return nil, fmt.Errorf("query overlapping sv: %w", err)
	}
	defer rows.Close()

	var best *SV
	var bestFrac float64
	for rows.Next() {
		v := &SV{}
		err := rows.Scan(&v.ID, &v.AnnotSVID, &v.Chrom, &v.Start, &v.End, &v.Type, &v.Mode)
		if err != nil {
			return nil, fmt.Errorf("scan sv: %w", err)
		}
		frac := ReciprocalOverlap(start, end, v.Start, v.End)
		if frac > minFrac && frac > bestFrac {
			best = v
			bestFrac = frac
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlapping sv: %w", err)
	}
	return best, nil
}

// ReciprocalOverlap returns the reciprocal overlap fraction of two
// intervals: the shared length divided by the longer of the two interval
// lengths, so that a linkage threshold applies to both intervals
// symmetrically. Returns 0 for disjoint or empty intervals.
func ReciprocalOverlap(aStart, aEnd, bStart, bEnd int64) float64 {
	aLen := aEnd - aStart
	bLen := bEnd - bStart
	if aLen <= 0 || bLen <= 0 {
		return 0
	}

	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	shared := hi - lo
	if shared <= 0 {
		return 0
	}

	longer := aLen
	if bLen > longer {
		longer = bLen
	}
	return float64(shared) / float64(longer)
}
