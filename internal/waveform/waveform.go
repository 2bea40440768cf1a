// Package waveform derives physical surface-elevation estimates and
// shape descriptors from ASIRAS multilooked radar echoes. All
// functions are stateless and operate on whole waveform matrices: rows
// are observations in source record order, columns are range bins.
package waveform

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// powerScale converts scaled echo counts to Watts (field 26 of the
// data products description).
const powerScale = 10e-9

// Params is the immutable processing configuration handed to the
// processor at construction. See DefaultParams for the instrument
// values.
type Params struct {
	// SpeedOfLight in m/s.
	SpeedOfLight float64
	// BinSize is the line-of-sight distance covered by one range bin,
	// in meters.
	BinSize float64
	// RetrackerThresholds are the TFMRA peak-power fractions, each in
	// (0, 1].
	RetrackerThresholds []float64
	// SignalThreshold is the peak fraction treated as signal when
	// locating return-width boundaries.
	SignalThreshold float64
	// PeakinessLeft and PeakinessRight are the signed bin offsets,
	// relative to the peak, summed for the neighbour peakiness ratios.
	PeakinessLeft  []int
	PeakinessRight []int
}

// DefaultParams returns the ASIRAS processing parameters.
func DefaultParams() Params {
	return Params{
		SpeedOfLight:        299792458,
		BinSize:             0.109787,
		RetrackerThresholds: []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		SignalThreshold:     0.01,
		PeakinessLeft:       []int{-3, -2, -1},
		PeakinessRight:      []int{1, 2, 3},
	}
}

// Value is a derived quantity that may be undefined for a row: a
// missing threshold crossing or a zero-sum ratio denominator yields
// OK == false rather than a NaN that would propagate silently.
type Value struct {
	V  float64
	OK bool
}

func defined(v float64) Value { return Value{V: v, OK: true} }

var undefined = Value{}

// Direction selects which side of the first maximum a crossing search
// scans.
type Direction int

const (
	Left Direction = iota
	Right
)

// CrossingIndex returns the fractional bin index at which the row
// crosses threshold times its first maximum, scanning in dir from that
// maximum. The crossing is the last index before the peak (Left) or
// the first after it (Right) whose value is at or below the target;
// when the value does not hit the target exactly, the index is
// linearly interpolated toward the peak so the interpolated value
// equals the target. A peak already at the scanned boundary returns
// the peak index. With no crossing in the scanned span, OK is false.
func CrossingIndex(row []float64, threshold float64, dir Direction) Value {
	if len(row) == 0 {
		return undefined
	}
	peak := floats.MaxIdx(row)
	target := row[peak] * threshold

	if threshold == 1 {
		return defined(float64(peak))
	}

	switch dir {
	case Right:
		if peak == len(row)-1 {
			return defined(float64(peak))
		}
		for i := peak; i < len(row); i++ {
			if row[i] > target {
				continue
			}
			if row[i] == target {
				return defined(float64(i))
			}
			prev := row[i-1]
			gap := (prev - target) / (prev - row[i])
			return defined(float64(i-1) + gap)
		}
		return undefined

	case Left:
		if peak == 0 {
			return defined(0)
		}
		for i := peak - 1; i >= 0; i-- {
			if row[i] > target {
				continue
			}
			if row[i] == target {
				return defined(float64(i))
			}
			next := row[i+1]
			gap := (next - target) / (next - row[i])
			return defined(float64(i+1) - gap)
		}
		return undefined
	}

	return undefined
}

// ScaleEchoes removes the effects of gains and attenuations from raw
// echo rows: scaled[i][j] = powerScale * 2^pow2[i] * lin[i] * raw[i][j].
// The result is a new allocation, never aliasing raw.
func ScaleEchoes(raw [][]float64, lin, pow2 []float64) [][]float64 {
	scaled := make([][]float64, len(raw))
	for i, row := range raw {
		k := powerScale * math.Pow(2, pow2[i]) * lin[i]
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = k * v
		}
		scaled[i] = out
	}
	return scaled
}

// FirstBinElevation anchors bin index 0 of each row to an absolute
// elevation: the sensor elevation minus the distance from the sensor
// to the start of the range window. windowDelay is the two-way range
// window delay in seconds; numBins is the waveform column count.
func FirstBinElevation(p Params, windowDelay, sensorElvtn []float64, numBins int) []float64 {
	// Half the physical span of the range window; the delay points at
	// the window centre.
	halfWindow := p.BinSize * float64(numBins) / 2

	out := make([]float64, len(windowDelay))
	for i := range out {
		windowCentreDist := windowDelay[i] * 0.5 * p.SpeedOfLight
		out[i] = sensorElvtn[i] - (windowCentreDist - halfWindow)
	}
	return out
}

// RetrackResult is one retracked elevation for an (observation,
// threshold) pair.
type RetrackResult struct {
	Threshold float64
	Elevation Value
}

// Retrack applies TFMRA threshold retracking to every row of the
// scaled waveform matrix, independently per (row, threshold) pair.
// Result rows align with the input rows; each holds one entry per
// configured threshold. A missing crossing leaves that single entry
// undefined.
func Retrack(p Params, scaled [][]float64, firstBinElvtn []float64) [][]RetrackResult {
	results := make([][]RetrackResult, len(scaled))
	for i, row := range scaled {
		entries := make([]RetrackResult, len(p.RetrackerThresholds))
		for k, t := range p.RetrackerThresholds {
			entries[k] = RetrackResult{Threshold: t}
			if idx := CrossingIndex(row, t, Left); idx.OK {
				entries[k].Elevation = defined(firstBinElvtn[i] - idx.V*p.BinSize)
			}
		}
		results[i] = entries
	}
	return results
}

// Shape holds the per-row waveform shape descriptors: pulse peakiness
// against the full row and against fixed neighbour windows, and the
// return width split into its left and right halves.
type Shape struct {
	PPeak       Value
	PPeakLeft   Value
	PPeakRight  Value
	RWidth      Value
	RWidthLeft  Value
	RWidthRight Value
}

// Shapes computes the shape descriptors for every row of the scaled
// waveform matrix. Zero-sum denominators and missing signal-threshold
// crossings yield undefined entries for that row only.
func Shapes(p Params, scaled [][]float64) []Shape {
	shapes := make([]Shape, len(scaled))
	for i, row := range scaled {
		if len(row) == 0 {
			continue
		}
		peakIdx := floats.MaxIdx(row)
		peak := row[peakIdx]

		s := &shapes[i]
		s.PPeak = peakRatio(peak, floats.Sum(row))
		s.PPeakLeft = peakRatio(peak, AggregateRelativeIndices(row, p.PeakinessLeft, floats.MaxIdx, floats.Sum))
		s.PPeakRight = peakRatio(peak, AggregateRelativeIndices(row, p.PeakinessRight, floats.MaxIdx, floats.Sum))

		left := CrossingIndex(row, p.SignalThreshold, Left)
		right := CrossingIndex(row, p.SignalThreshold, Right)
		if left.OK {
			s.RWidthLeft = defined((float64(peakIdx) - left.V) * p.BinSize)
		}
		if right.OK {
			s.RWidthRight = defined((right.V - float64(peakIdx)) * p.BinSize)
		}
		if left.OK && right.OK {
			s.RWidth = defined(s.RWidthLeft.V + s.RWidthRight.V)
		}
	}
	return shapes
}

// peakRatio guards the peak-over-sum ratio against a zero denominator.
func peakRatio(peak, sum float64) Value {
	if sum == 0 {
		return undefined
	}
	return defined(peak / sum)
}

// AggregateRelativeIndices gathers the values of row at the signed
// offsets relative to the index chosen by anchor, keeping only offsets
// that stay in bounds, and applies agg to them.
func AggregateRelativeIndices(row []float64, offsets []int, anchor func([]float64) int, agg func([]float64) float64) float64 {
	base := anchor(row)
	vals := make([]float64, 0, len(offsets))
	for _, off := range offsets {
		if i := base + off; i >= 0 && i < len(row) {
			vals = append(vals, row[i])
		}
	}
	return agg(vals)
}
