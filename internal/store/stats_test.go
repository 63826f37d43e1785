package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svdb/internal/annotsv"
)

// seedStats fills a store with two SVs: sv1 in samples A+B overlapping
// genes MTOR (frameshift) and AGRN, sv2 in sample A overlapping MSH2.
func seedStats(t *testing.T, s *Store) {
	t.Helper()

	for _, sample := range []string{"sampleA", "sampleB"} {
		require.NoError(t, s.UpsertSample(sample))
	}

	sv1, err := s.InsertSV(&SV{
		AnnotSVID: "sv1", Chrom: "1", Start: 10000, End: 20000, Type: "DEL", Mode: "full",
	})
	require.NoError(t, err)
	sv2, err := s.InsertSV(&SV{
		AnnotSVID: "sv2", Chrom: "2", Start: 50000, End: 60000, Type: "DUP", Mode: "full",
	})
	require.NoError(t, err)

	require.NoError(t, s.LinkSample(sv1, "sampleA"))
	require.NoError(t, s.LinkSample(sv1, "sampleB"))
	require.NoError(t, s.LinkSample(sv2, "sampleA"))

	mtor, err := s.GetOrCreateGene("MTOR")
	require.NoError(t, err)
	agrn, err := s.GetOrCreateGene("AGRN")
	require.NoError(t, err)
	msh2, err := s.GetOrCreateGene("MSH2")
	require.NoError(t, err)

	require.NoError(t, s.LinkGene(sv1, mtor))
	require.NoError(t, s.LinkGene(sv1, agrn))
	require.NoError(t, s.LinkGene(sv2, msh2))

	tx1, err := s.GetOrCreateTranscript("NM_004958", "4", 9800, 15000)
	require.NoError(t, err)
	tx2, err := s.GetOrCreateTranscript("NM_000251", "3", 50200, 58000)
	require.NoError(t, err)

	require.NoError(t, s.LinkTranscript(sv1, tx1, annotsv.TxLink{
		Frameshift:           "yes",
		OverlappedCDSPercent: nullFloat(60),
	}))
	require.NoError(t, s.LinkTranscript(sv2, tx2, annotsv.TxLink{
		Frameshift:           "no",
		OverlappedCDSPercent: nullFloat(80),
	}))
}

func TestTotals(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, Totals{
		Samples:     2,
		Genes:       3,
		Transcripts: 2,
		SVs:         2,
		SampleLinks: 3,
		GeneLinks:   3,
		TxLinks:     2,
	}, totals)
}

func TestSVSampleDistribution(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	bins, err := s.SVSampleDistribution()
	require.NoError(t, err)
	assert.Equal(t, []DistributionBin{
		{SampleCount: 1, SVCount: 1},
		{SampleCount: 2, SVCount: 1},
	}, bins)
}

func TestSampleSVCounts(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	counts, err := s.SampleSVCounts()
	require.NoError(t, err)
	assert.Equal(t, []SampleSVCount{
		{SampleID: "sampleA", SVCount: 2},
		{SampleID: "sampleB", SVCount: 1},
	}, counts)
}

func TestTopGenes(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	genes, err := s.TopGenes(10)
	require.NoError(t, err)
	require.Len(t, genes, 3)
	for _, g := range genes {
		assert.Equal(t, 1, g.SVCount)
	}

	genes, err = s.TopGenes(2)
	require.NoError(t, err)
	assert.Len(t, genes, 2)
}

func TestTopGenesExcludesUnlinked(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	_, err := s.GetOrCreateGene("ORPHAN")
	require.NoError(t, err)

	genes, err := s.TopGenes(10)
	require.NoError(t, err)
	for _, g := range genes {
		assert.NotEqual(t, "ORPHAN", g.GeneName)
	}
}

func TestTopTranscripts(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	txs, err := s.TopTranscripts(10)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "NM_000251", txs[0].TxName)
	assert.Equal(t, "3", txs[0].TxVersion)
	assert.Equal(t, 1, txs[0].SVCount)
	require.True(t, txs[0].AvgCDSOverlap.Valid)
	assert.InDelta(t, 80, txs[0].AvgCDSOverlap.Float64, 0.001)
}

func TestFrameshiftSVs(t *testing.T) {
	s := openInMemory(t)
	seedStats(t, s)

	svs, err := s.FrameshiftSVs(10)
	require.NoError(t, err)
	require.Len(t, svs, 1)
	assert.Equal(t, "sv1", svs[0].AnnotSVID)
	assert.Equal(t, 1, svs[0].AffectedTranscripts)
}

func TestStatsEmptyStore(t *testing.T) {
	s := openInMemory(t)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, Totals{}, totals)

	bins, err := s.SVSampleDistribution()
	require.NoError(t, err)
	assert.Empty(t, bins)

	svs, err := s.FrameshiftSVs(10)
	require.NoError(t, err)
	assert.Empty(t, svs)
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}
