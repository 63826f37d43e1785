// Package importer loads AnnotSV output files into the store.
package importer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"svdb/internal/annotsv"
	"svdb/internal/store"
)

// DefaultOverlapFraction is the reciprocal overlap above which two SVs on
// the same chromosome with the same type are treated as the same variant.
const DefaultOverlapFraction = 0.80

// Summary holds the row and relationship counters of one import run.
type Summary struct {
	TotalRows   int
	FullRows    int
	SplitRows   int
	SkippedRows int

	NewSVs      int
	LinkedSVs   int
	Transcripts int

	SampleLinks int
	GeneLinks   int
	TxLinks     int
}

// Importer imports one AnnotSV file into a store. The file is streamed
// twice: full lines first (samples and SVs), then split lines (genes,
// transcripts and their associations).
type Importer struct {
	store       *store.Store
	logger      *zap.Logger
	overlapFrac float64
}

// New creates an importer writing into the given store.
func New(s *store.Store) *Importer {
	return &Importer{
		store:       s,
		logger:      zap.NewNop(),
		overlapFrac: DefaultOverlapFraction,
	}
}

// SetLogger sets the logger for progress reporting.
func (im *Importer) SetLogger(l *zap.Logger) {
	if l != nil {
		im.logger = l
	}
}

// SetOverlapFraction overrides the SV linkage threshold.
func (im *Importer) SetOverlapFraction(frac float64) {
	im.overlapFrac = frac
}

// svKey identifies a full SV row for in-file deduplication.
type svKey struct {
	annotsvID, chrom string
	start, end       int64
}

// Run imports the AnnotSV file at path and returns the run summary.
func (im *Importer) Run(path string) (*Summary, error) {
	sum := &Summary{}

	// svIDs maps every AnnotSV ID seen in this file to the stored sv_id
	// its split lines should attach to, including IDs that were absorbed
	// into an overlapping SV from an earlier import.
	svIDs := make(map[string]int64)

	im.logger.Info("importing full lines", zap.String("path", path))
	if err := im.importFullLines(path, sum, svIDs); err != nil {
		return nil, err
	}

	im.logger.Info("importing split lines",
		zap.String("path", path),
		zap.Int("svs", sum.NewSVs),
		zap.Int("linked", sum.LinkedSVs))
	if err := im.importSplitLines(path, sum, svIDs); err != nil {
		return nil, err
	}

	im.logger.Info("import complete",
		zap.Int("total_rows", sum.TotalRows),
		zap.Int("skipped_rows", sum.SkippedRows),
		zap.Int("new_svs", sum.NewSVs),
		zap.Int("transcripts", sum.Transcripts))
	return sum, nil
}

// importFullLines streams the file once, creating samples and SVs and
// attaching sample links. Overlapping SVs from earlier imports absorb the
// incoming row instead of producing a duplicate.
func (im *Importer) importFullLines(path string, sum *Summary, svIDs map[string]int64) error {
	p, err := annotsv.NewParser(path)
	if err != nil {
		return err
	}
	defer p.Close()

	seen := make(map[svKey]bool)

	for {
		rec, err := p.Next()
		if err != nil {
			var perr *annotsv.ParseError
			if errors.As(err, &perr) {
				sum.TotalRows++
				sum.SkippedRows++
				im.logger.Warn("skipping malformed row",
					zap.Int("line", perr.Line),
					zap.String("reason", perr.Message))
				continue
			}
			return err
		}
		if rec == nil {
			break
		}

		sum.TotalRows++
		if rec.Mode == annotsv.ModeSplit {
			sum.SplitRows++
			continue
		}
		sum.FullRows++

		key := svKey{rec.AnnotSVID, rec.Chrom, rec.Start, rec.End}
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, sample := range rec.Samples {
			if err := im.store.UpsertSample(sample); err != nil {
				return err
			}
		}

		svID, err := im.resolveSV(rec, sum)
		if err != nil {
			return err
		}
		svIDs[rec.AnnotSVID] = svID

		for _, sample := range rec.Samples {
			if err := im.store.LinkSample(svID, sample); err != nil {
				return err
			}
			sum.SampleLinks++
		}
	}
	return nil
}

// resolveSV links the record to an existing overlapping SV or inserts it
// as a new row, returning the sv_id to attach relationships to.
func (im *Importer) resolveSV(rec *annotsv.Record, sum *Summary) (int64, error) {
	existing, err := im.store.FindOverlapping(rec.Chrom, rec.Type, rec.Start, rec.End, im.overlapFrac)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		sum.LinkedSVs++
		im.logger.Debug("linking to overlapping sv",
			zap.String("annotsv_id", rec.AnnotSVID),
			zap.String("existing", existing.AnnotSVID),
			zap.String("chrom", rec.Chrom))
		return existing.ID, nil
	}

	id, err := im.store.InsertSV(&store.SV{
		AnnotSVID: rec.AnnotSVID,
		Chrom:     rec.Chrom,
		Start:     rec.Start,
		End:       rec.End,
		Type:      rec.Type,
		Mode:      rec.Mode,
	})
	if err != nil {
		return 0, err
	}
	sum.NewSVs++
	return id, nil
}

// importSplitLines streams the file again, creating genes and transcripts
// from split lines and attaching them to their SVs.
func (im *Importer) importSplitLines(path string, sum *Summary, svIDs map[string]int64) error {
	p, err := annotsv.NewParser(path)
	if err != nil {
		return err
	}
	defer p.Close()

	txSeen := make(map[int64]bool)

	for {
		rec, err := p.Next()
		if err != nil {
			var perr *annotsv.ParseError
			if errors.As(err, &perr) {
				continue // already counted in the first pass
			}
			return err
		}
		if rec == nil {
			break
		}
		if rec.Mode != annotsv.ModeSplit || rec.AnnotSVID == "" {
			continue
		}

		svID, ok, err := im.lookupSV(rec.AnnotSVID, svIDs)
		if err != nil {
			return err
		}
		if !ok {
			im.logger.Debug("split line without matching full sv",
				zap.String("annotsv_id", rec.AnnotSVID))
			continue
		}

		if rec.HasTx {
			txID, err := im.store.GetOrCreateTranscript(rec.TxName, rec.TxVersion, rec.TxStart, rec.TxEnd)
			if err != nil {
				return err
			}
			if !txSeen[txID] {
				txSeen[txID] = true
				sum.Transcripts++
			}
			if err := im.store.LinkTranscript(svID, txID, rec.TxLink); err != nil {
				return err
			}
			sum.TxLinks++
		}

		if rec.GeneName != "" {
			geneID, err := im.store.GetOrCreateGene(rec.GeneName)
			if err != nil {
				return err
			}
			if err := im.store.LinkGene(svID, geneID); err != nil {
				return err
			}
			sum.GeneLinks++
		}
	}
	return nil
}

// lookupSV resolves an AnnotSV ID to a stored sv_id, preferring the IDs
// recorded during the full-line pass (which include overlap-absorbed rows)
// and falling back to the store for earlier imports.
func (im *Importer) lookupSV(annotsvID string, svIDs map[string]int64) (int64, bool, error) {
	if id, ok := svIDs[annotsvID]; ok {
		return id, true, nil
	}
	v, err := im.store.SVByAnnotSVID(annotsvID)
	if err != nil {
		return 0, false, fmt.Errorf("lookup sv for split line: %w", err)
	}
	if v == nil {
		return 0, false, nil
	}
	svIDs[annotsvID] = v.ID
	return v.ID, true, nil
}
