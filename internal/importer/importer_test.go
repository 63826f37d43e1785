package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svdb/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateSchema())
	return s
}

func fixturePath() string {
	return filepath.Join("testdata", "annotsv_output.tsv")
}

func TestRun(t *testing.T) {
	s := openStore(t)

	sum, err := New(s).Run(fixturePath())
	require.NoError(t, err)

	// The fixture has 10 data rows: 4 valid full lines (one of which
	// overlaps an earlier SV >80%), 5 split lines and 1 malformed line.
	assert.Equal(t, 10, sum.TotalRows)
	assert.Equal(t, 4, sum.FullRows)
	assert.Equal(t, 5, sum.SplitRows)
	assert.Equal(t, 1, sum.SkippedRows)
	assert.Equal(t, 3, sum.NewSVs)
	assert.Equal(t, 1, sum.LinkedSVs)
	assert.Equal(t, 4, sum.Transcripts)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Samples)
	assert.Equal(t, 4, totals.Genes)
	assert.Equal(t, 4, totals.Transcripts)
	assert.Equal(t, 3, totals.SVs)
	assert.Equal(t, 5, totals.SampleLinks)
	assert.Equal(t, 4, totals.GeneLinks)
	assert.Equal(t, 4, totals.TxLinks)
}

func TestRunOverlapLinkage(t *testing.T) {
	s := openStore(t)

	_, err := New(s).Run(fixturePath())
	require.NoError(t, err)

	// The 1_10100_20100 row was absorbed into the 1_10000_20000 SV; its
	// sample and split lines must point at the stored SV.
	absorbed, err := s.SVByAnnotSVID("1_10100_20100_DEL_1")
	require.NoError(t, err)
	assert.Nil(t, absorbed)

	v, err := s.SVByAnnotSVID("1_10000_20000_DEL_1")
	require.NoError(t, err)
	require.NotNil(t, v)

	counts, err := s.SampleSVCounts()
	require.NoError(t, err)
	bySample := make(map[string]int)
	for _, c := range counts {
		bySample[c.SampleID] = c.SVCount
	}
	// sampleC carries the absorbed DEL plus its own DUP
	assert.Equal(t, 2, bySample["sampleC"])
}

func TestRunTwiceIsIdempotentForSVs(t *testing.T) {
	s := openStore(t)
	im := New(s)

	sum1, err := im.Run(fixturePath())
	require.NoError(t, err)
	assert.Equal(t, 3, sum1.NewSVs)

	sum2, err := im.Run(fixturePath())
	require.NoError(t, err)

	// Every full row of the second run overlaps a stored SV at 100%.
	assert.Equal(t, 0, sum2.NewSVs)
	assert.Equal(t, 4, sum2.LinkedSVs)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 3, totals.SVs)
	assert.Equal(t, 3, totals.Samples)
	assert.Equal(t, 4, totals.Genes)
	assert.Equal(t, 4, totals.Transcripts)
	assert.Equal(t, 5, totals.SampleLinks)
}

func TestRunBelowThresholdStaysDistinct(t *testing.T) {
	s := openStore(t)
	im := New(s)

	_, err := s.InsertSV(&store.SV{
		AnnotSVID: "1_15000_25000_DEL_1",
		Chrom:     "1", Start: 15000, End: 25000, Type: "DEL", Mode: "full",
	})
	require.NoError(t, err)

	sum, err := im.Run(fixturePath())
	require.NoError(t, err)

	// 10000-20000 overlaps 15000-25000 by only 50%, so it is inserted.
	assert.Equal(t, 3, sum.NewSVs)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 4, totals.SVs)
}

func TestRunFrameshifts(t *testing.T) {
	s := openStore(t)

	_, err := New(s).Run(fixturePath())
	require.NoError(t, err)

	svs, err := s.FrameshiftSVs(10)
	require.NoError(t, err)
	require.Len(t, svs, 2)
	assert.Equal(t, "1_10000_20000_DEL_1", svs[0].AnnotSVID)
	assert.Equal(t, "2_50000_60000_DEL_1", svs[1].AnnotSVID)
}

func TestRunEmptySampleEntriesBecomeNA(t *testing.T) {
	s := openStore(t)

	path := filepath.Join(t.TempDir(), "trailing_comma.tsv")
	data := "AnnotSV_ID\tSV_chrom\tSV_start\tSV_end\tSV_type\tSamples_ID\tAnnotation_mode\n" +
		"1_100_200_DEL_1\t1\t100\t200\tDEL\tsampleA,,\tfull\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := New(s).Run(path)
	require.NoError(t, err)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Samples)
	assert.Equal(t, 2, totals.SampleLinks)

	counts, err := s.SampleSVCounts()
	require.NoError(t, err)
	bySample := make(map[string]int)
	for _, c := range counts {
		bySample[c.SampleID] = c.SVCount
	}
	assert.Equal(t, 1, bySample["sampleA"])
	assert.Equal(t, 1, bySample["NA"])
}

func TestRunMissingFile(t *testing.T) {
	s := openStore(t)

	_, err := New(s).Run(filepath.Join("testdata", "missing.tsv"))
	require.Error(t, err)
}

func TestSetOverlapFraction(t *testing.T) {
	s := openStore(t)
	im := New(s)
	im.SetOverlapFraction(0.99)

	_, err := im.Run(fixturePath())
	require.NoError(t, err)

	totals, err := s.Totals()
	require.NoError(t, err)
	// The 1_10100_20100 row overlaps at exactly 99%, which does not
	// exceed the 0.99 threshold, so it becomes a fourth SV.
	assert.Equal(t, 4, totals.SVs)
}
