// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package state

import "math"

// DefaultWindowSize is the default number of entries to compare for trends.
const DefaultWindowSize = 5

// deadbandPct is the percentage change threshold below which a trend is "stable".
const deadbandPct = 0.10

// Direction describes whether a count is improving, stable, or degrading.
type Direction string

const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Degrading Direction = "degrading"
)

// TrendLine captures the directional change for a single count.
type TrendLine struct {
	Current   int       `json:"current"`
	Previous  int       `json:"previous"`
	Delta     int       `json:"delta"`
	Direction Direction `json:"direction"`
}

// TrendResult holds computed trends across all counts.
type TrendResult struct {
	TotalTrend     TrendLine            `json:"total_trend"`
	KindTrends     map[string]TrendLine `json:"kind_trends"`
	CategoryTrends map[string]TrendLine `json:"category_trends"`
	WindowSize     int                  `json:"window_size"`
	DataPoints     int                  `json:"data_points"`
}

// ComputeTrends compares the oldest and newest entries within the last
// windowSize builds. Returns nil with fewer than 2 data points.
func ComputeTrends(h *BuildHistory, windowSize int) *TrendResult {
	if h == nil || len(h.Entries) < 2 {
		return nil
	}
	if windowSize < 2 {
		windowSize = DefaultWindowSize
	}

	entries := h.Entries
	if len(entries) > windowSize {
		entries = entries[len(entries)-windowSize:]
	}

	oldest := entries[0]
	newest := entries[len(entries)-1]

	result := &TrendResult{
		TotalTrend:     computeTrendLine(oldest.TotalNotices, newest.TotalNotices),
		KindTrends:     make(map[string]TrendLine),
		CategoryTrends: make(map[string]TrendLine),
		WindowSize:     windowSize,
		DataPoints:     len(entries),
	}

	for _, k := range mergeKeys(oldest.KindCounts, newest.KindCounts) {
		result.KindTrends[k] = computeTrendLine(oldest.KindCounts[k], newest.KindCounts[k])
	}
	for _, k := range mergeKeys(oldest.CategoryCounts, newest.CategoryCounts) {
		result.CategoryTrends[k] = computeTrendLine(oldest.CategoryCounts[k], newest.CategoryCounts[k])
	}

	return result
}

func computeTrendLine(oldVal, newVal int) TrendLine {
	return TrendLine{
		Current:   newVal,
		Previous:  oldVal,
		Delta:     newVal - oldVal,
		Direction: classifyDirection(oldVal, newVal),
	}
}

// classifyDirection applies a 10% deadband. Fewer notices is improving.
func classifyDirection(oldVal, newVal int) Direction {
	if oldVal == 0 && newVal == 0 {
		return Stable
	}

	base := oldVal
	if base == 0 {
		base = newVal
	}

	pctChange := math.Abs(float64(newVal-oldVal)) / float64(base)
	if pctChange <= deadbandPct {
		return Stable
	}

	if newVal < oldVal {
		return Improving
	}
	return Degrading
}

// mergeKeys returns the sorted union of keys from two maps.
func mergeKeys(a, b map[string]int) []string {
	seen := make(map[string]int, len(a)+len(b))
	for k := range a {
		seen[k] = 0
	}
	for k := range b {
		seen[k] = 0
	}
	return SortedKeys(seen)
}
