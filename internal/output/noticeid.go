// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package output

import (
	"crypto/sha256"
	"fmt"

	"github.com/davetashner/buildsignal/internal/signal"
)

// NoticeID produces a deterministic ID from notice content.
// It hashes Type + Title + FilePath + StartingLine using SHA-256,
// truncates to 8 hex characters, and prepends the given prefix.
func NoticeID(n signal.Notice, prefix string) string {
	h := sha256.New()
	// Null separators keep "ab"+"c" distinct from "a"+"bc".
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", n.Type, n.Title, n.FilePath(), n.StartingLine)
	sum := h.Sum(nil)
	return fmt.Sprintf("%s%x", prefix, sum[:4])
}
