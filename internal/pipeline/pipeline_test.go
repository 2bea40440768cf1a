package pipeline

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pjdon/cveureka/internal/l1b"
	"github.com/pjdon/cveureka/internal/store"
	"github.com/pjdon/cveureka/internal/testutil"
	"github.com/pjdon/cveureka/internal/waveform"
)

func testParams() waveform.Params {
	return waveform.Params{
		SpeedOfLight:        2,
		BinSize:             1,
		RetrackerThresholds: []float64{0.5},
		SignalThreshold:     0.01,
		PeakinessLeft:       []int{-1},
		PeakinessRight:      []int{1},
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(testutil.TempDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// alsFile renders a minimal scanner file: one line per entry, each
// entry one point given as (elevation, longitude, latitude).
func alsFile(points [][3]float64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(12))
	binary.Write(&buf, binary.BigEndian, int32(len(points)))
	binary.Write(&buf, binary.BigEndian, int32(1))
	buf.Write(make([]byte, 4*len(points))) // timestamp table

	for i, p := range points {
		for _, v := range []float64{float64(i), 0, p[2], p[1], p[0]} {
			binary.Write(&buf, binary.BigEndian, math.Float64bits(v))
		}
	}
	return buf.Bytes()
}

func TestLoadAls(t *testing.T) {
	s := openTestStore(t)
	path := testutil.WriteTempFile(t, "als.bin", alsFile([][3]float64{
		{31.25, -85.5, 70.1},
		{math.NaN(), -85.6, 70.2},
		{33.0, -85.7, 70.3},
	}))

	p := New(s, testParams())
	require.NoError(t, p.LoadAls(path))

	var count int
	require.NoError(t, s.QueryRow(`SELECT COUNT(*) FROM als_src`).Scan(&count))
	require.Equal(t, 2, count)

	var elv, lon, lat float64
	err := s.QueryRow(`SELECT snow_elvtn, longitude, latitude FROM als_src ORDER BY id LIMIT 1`).
		Scan(&elv, &lon, &lat)
	require.NoError(t, err)
	require.Equal(t, 31.25, elv)
	require.Equal(t, -85.5, lon)
	require.Equal(t, 70.1, lat)

	// The ingest run must carry the written and dropped counts.
	var written, dropped int64
	err = s.QueryRow(
		`SELECT rows_written, rows_dropped FROM ingest_runs WHERE output_table = 'als_src'`,
	).Scan(&written, &dropped)
	require.NoError(t, err)
	require.Equal(t, int64(2), written)
	require.Equal(t, int64(1), dropped)
}

func TestLoadAlsSkipsExistingTable(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.DeclareTable(TableAlsSource, []l1b.Column{
		{Name: "snow_elvtn", Type: l1b.WriteFloat, Count: 1},
	}))

	// The path does not exist; the skip must win before the open.
	p := New(s, testParams())
	require.NoError(t, p.LoadAls("/nonexistent/als.bin"))
}

func TestLoadAsirasSkipsExistingTable(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.DeclareTable(TableAsirasSource, []l1b.Column{
		{Name: "days", Type: l1b.WriteInt, Count: 1},
	}))

	p := New(s, testParams())
	require.NoError(t, p.LoadAsiras("/nonexistent/asiras.dbl"))
}

// seedSourceRows fills a hand-made ASIRAS source table with the
// columns waveform processing reads back.
func seedSourceRows(t *testing.T, s *store.Store, echoes [][]int64) {
	t.Helper()
	cols := []l1b.Column{
		{Name: "linear_scale_factor", Type: l1b.WriteInt, Count: 1},
		{Name: "power2_scale_factor", Type: l1b.WriteInt, Count: 1},
		{Name: "window_delay", Type: l1b.WriteFloat, Count: 1},
		{Name: "altitude", Type: l1b.WriteFloat, Count: 1},
		{Name: "ml_power_echo", Type: l1b.WriteInt, Count: len(echoes[0])},
	}
	require.NoError(t, s.DeclareTable(TableAsirasSource, cols))

	rows := make([]l1b.DecodedRecord, len(echoes))
	for i, echo := range echoes {
		rows[i] = l1b.DecodedRecord{int64(1), int64(0), 10.0, 100.0, echo}
	}
	require.NoError(t, s.BulkInsert(TableAsirasSource, rows, l1b.ColumnNames(cols)))
}

func TestProcessWaveforms(t *testing.T) {
	s := openTestStore(t)
	seedSourceRows(t, s, [][]int64{
		{0, 2, 4},    // half-power crossing exactly at bin 1
		{30, 35, 40}, // stays above half power left of the peak
	})

	p := New(s, testParams())
	require.NoError(t, p.ProcessWaveforms())

	// Scale factor is 10e-9 * 2^0 * 1 per count. The window centre is
	// 10 * 0.5 * 2 = 10 m below the 100 m sensor, and half the window
	// span of 3 unit bins is 1.5 m, anchoring bin 0 at 91.5 m.
	var (
		id        int64
		threshold float64
		elvtn     *float64
	)
	err := s.QueryRow(
		`SELECT id_asr, tfmra_threshold, tfmra_elvtn FROM asr_tfmra WHERE id_asr = 1`,
	).Scan(&id, &threshold, &elvtn)
	require.NoError(t, err)
	require.Equal(t, 0.5, threshold)
	require.NotNil(t, elvtn)
	require.InDelta(t, 90.5, *elvtn, 1e-9)

	// Row 2 has no crossing, so its elevation is NULL.
	err = s.QueryRow(`SELECT tfmra_elvtn FROM asr_tfmra WHERE id_asr = 2`).Scan(&elvtn)
	require.NoError(t, err)
	require.Nil(t, elvtn)

	var ppeak, rwidth float64
	var ppeakRight *float64
	err = s.QueryRow(
		`SELECT ppeak, ppeak_right, rwidth FROM asr_wshape WHERE id_asr = 1`,
	).Scan(&ppeak, &ppeakRight, &rwidth)
	require.NoError(t, err)
	require.InDelta(t, 4.0/6, ppeak, 1e-9)
	// The only right-neighbour offset falls past the last bin.
	require.Nil(t, ppeakRight)
	require.InDelta(t, 1.98, rwidth, 1e-9)

	var scaledJSON string
	err = s.QueryRow(`SELECT waveform_scaled FROM asr_wscaled WHERE id_asr = 1`).Scan(&scaledJSON)
	require.NoError(t, err)
	var scaled []float64
	require.NoError(t, json.Unmarshal([]byte(scaledJSON), &scaled))
	require.Len(t, scaled, 3)
	require.InDelta(t, 4e-8, scaled[2], 1e-20)
}

func TestProcessWaveformsSkipsWhenOutputsExist(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{TableRetracked, TableWaveformShape, TableScaledEchoes} {
		require.NoError(t, s.DeclareTable(table, []l1b.Column{
			{Name: "id_asr", Type: l1b.WriteInt, Count: 1},
		}))
	}

	// No source table exists; the skip must win before any read.
	p := New(s, testParams())
	require.NoError(t, p.ProcessWaveforms())
}

func TestProcessWaveformsEmptySource(t *testing.T) {
	s := openTestStore(t)
	seedSourceRows(t, s, [][]int64{{1, 2, 3}})
	_, err := s.Exec(`DELETE FROM asr_src`)
	require.NoError(t, err)

	p := New(s, testParams())
	require.Error(t, p.ProcessWaveforms())
}

func TestRunSequencesAllSteps(t *testing.T) {
	s := openTestStore(t)
	alsPath := testutil.WriteTempFile(t, "als.bin", alsFile([][3]float64{{1, 2, 3}}))

	// With the ASIRAS source pre-seeded, Run skips that load, loads the
	// ALS file and derives all three waveform tables.
	seedSourceRows(t, s, [][]int64{{0, 2, 4}})

	p := New(s, testParams())
	require.NoError(t, p.Run("/nonexistent/asiras.dbl", alsPath))

	for _, table := range []string{TableAlsSource, TableRetracked, TableWaveformShape, TableScaledEchoes} {
		exists, err := s.TableExists(table)
		require.NoError(t, err)
		require.True(t, exists, table)
	}
}
