package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cubeware/cubetimer/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cubetimer.db")
	s, err := Open(path, "3x3")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_OnSolveAttemptStartStopPersists(t *testing.T) {
	s := openTestStore(t)
	sv := s.OnSolveAttemptStart()
	sv.ApplyResult(12281, core.Penalties{}, 1700000000000)
	s.OnSolveAttemptStop(sv)

	records, err := s.Records("3x3")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.EqualValues(t, 12281, records[0].ElapsedMs)
	require.EqualValues(t, 1, records[0].ID)
}

func TestStore_ScrambleSourceLabelsAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cubetimer.db")
	s, err := Open(path, "3x3", WithScrambleSource(func() string { return "R U R' U'" }))
	require.NoError(t, err)
	defer s.Close()

	sv := s.OnSolveAttemptStart()
	sv.ApplyResult(5000, core.Penalties{}, 0)

	records, err := s.Records("3x3")
	require.NoError(t, err)
	require.Equal(t, "R U R' U'", records[0].Scramble)
}

func TestStore_RecordsFiltersByCategory(t *testing.T) {
	s := openTestStore(t)
	rec := Record{Category: "OH", ElapsedMs: 9000}
	require.NoError(t, s.save(rec))

	threeByThree, err := s.Records("3x3")
	require.NoError(t, err)
	require.Empty(t, threeByThree)

	oh, err := s.Records("OH")
	require.NoError(t, err)
	require.Len(t, oh, 1)
}

func TestComputeStats_EmptyIsZeroValue(t *testing.T) {
	st := ComputeStats(nil)
	require.Equal(t, 0, st.Count)
	require.EqualValues(t, 0, st.BestMs)
}

func TestComputeStats_BestIgnoresDNF(t *testing.T) {
	records := []Record{
		{ElapsedMs: 9000},
		{ElapsedMs: 1000, PostDNF: true},
		{ElapsedMs: 8000},
	}
	st := ComputeStats(records)
	require.EqualValues(t, 8000, st.BestMs)
}

func TestComputeStats_Ao5TrimsBestAndWorst(t *testing.T) {
	records := []Record{
		{ElapsedMs: 10000}, {ElapsedMs: 11000}, {ElapsedMs: 9000}, {ElapsedMs: 12000}, {ElapsedMs: 8000},
	}
	st := ComputeStats(records)
	// sorted: 8000 9000 10000 11000 12000 -> trim 8000 and 12000 -> mean(9000,10000,11000)=10000
	require.EqualValues(t, 10000, st.Ao5Ms)
}

func TestComputeStats_Ao5DNFSortsWorst(t *testing.T) {
	records := []Record{
		{ElapsedMs: 10000}, {ElapsedMs: 11000}, {ElapsedMs: 9000}, {PostDNF: true}, {ElapsedMs: 8000},
	}
	st := ComputeStats(records)
	// sorted: 8000 9000 10000 11000 DNF -> trim 8000 and DNF -> mean(9000,10000,11000)=10000
	require.EqualValues(t, 10000, st.Ao5Ms)
}

func TestComputeStats_Ao5TooManyDNFsReturnsNegativeOne(t *testing.T) {
	records := []Record{
		{ElapsedMs: 10000}, {PostDNF: true}, {PostDNF: true}, {ElapsedMs: 11000}, {ElapsedMs: 8000},
	}
	st := ComputeStats(records)
	require.EqualValues(t, -1, st.Ao5Ms)
}

func TestComputeStats_FewerThanNRecordsSkipsAverage(t *testing.T) {
	records := []Record{{ElapsedMs: 10000}, {ElapsedMs: 11000}}
	st := ComputeStats(records)
	require.EqualValues(t, -1, st.Ao5Ms)
	require.EqualValues(t, -1, st.Ao12Ms)
}

func TestStore_CSVExportImportRoundTrip(t *testing.T) {
	s := openTestStore(t)
	sv := s.OnSolveAttemptStart()
	sv.ApplyResult(12281, core.Penalties{}, 1700000000000)

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(&buf, "3x3"))

	s2 := openTestStore(t)
	n, err := s2.ImportCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	records, err := s2.Records("3x3")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.EqualValues(t, 12281, records[0].ElapsedMs)
}
