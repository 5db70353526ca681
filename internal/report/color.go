// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package report

import "github.com/fatih/color"

// Shared color printers for report sections.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen)
	colorCyan   = color.New(color.FgCyan)
	colorBold   = color.New(color.Bold)
)

// ColorStatus colors build status labels.
func ColorStatus(val string) string {
	switch val {
	case "error":
		return colorRed.Sprint(val)
	case "warning":
		return colorYellow.Sprint(val)
	case "success":
		return colorGreen.Sprint(val)
	default:
		return val
	}
}

// ColorKind colors notice kinds.
func ColorKind(val string) string {
	switch val {
	case "error":
		return colorRed.Sprint(val)
	case "warning", "analyzer":
		return colorYellow.Sprint(val)
	case "deprecation":
		return colorCyan.Sprint(val)
	default:
		return val
	}
}

// SectionTitle renders a bold section title.
func SectionTitle(title string) string {
	return colorBold.Sprint(title)
}

// ColorDirection colors trend direction labels.
func ColorDirection(val string) string {
	switch val {
	case "improving":
		return colorGreen.Sprint(val)
	case "degrading":
		return colorRed.Sprint(val)
	default:
		return val
	}
}

// ColorCount colors a count cell: 0 is green, anything else yellow.
func ColorCount(val string) string {
	if val == "0" {
		return colorGreen.Sprint(val)
	}
	return colorYellow.Sprint(val)
}

// colorErrors colors a non-zero error count red.
func colorErrors(val string) string {
	if val == "0" {
		return val
	}
	return colorRed.Sprint(val)
}
