package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davetashner/buildsignal/internal/signal"
)

func TestNoticeID_Deterministic(t *testing.T) {
	n := sampleNotices()[0]
	a := NoticeID(n, "bs-")
	b := NoticeID(n, "bs-")
	assert.Equal(t, a, b)
	assert.Len(t, a, len("bs-")+8)
	assert.Regexp(t, `^bs-[0-9a-f]{8}$`, a)
}

func TestNoticeID_IgnoresColumnAndTarget(t *testing.T) {
	n := sampleNotices()[0]
	m := n
	m.StartingColumn = 99
	m.Target = "Other"
	assert.Equal(t, NoticeID(n, ""), NoticeID(m, ""))
}

func TestNoticeID_DistinguishesFields(t *testing.T) {
	base := signal.Notice{Type: signal.TypeSwiftWarning, Title: "ab", DocumentURL: "file:///c.swift", StartingLine: 1}
	variants := []signal.Notice{
		{Type: signal.TypeClangWarning, Title: "ab", DocumentURL: "file:///c.swift", StartingLine: 1},
		{Type: signal.TypeSwiftWarning, Title: "a", DocumentURL: "file:///bc.swift", StartingLine: 1},
		{Type: signal.TypeSwiftWarning, Title: "ab", DocumentURL: "file:///c.swift", StartingLine: 2},
	}
	id := NoticeID(base, "")
	for _, v := range variants {
		assert.NotEqual(t, id, NoticeID(v, ""))
	}
}

func TestNoticeID_PathFormsAgree(t *testing.T) {
	a := signal.Notice{Type: signal.TypeNote, Title: "t", DocumentURL: "file:///x/y.swift"}
	b := signal.Notice{Type: signal.TypeNote, Title: "t", DocumentURL: "/x/y.swift"}
	assert.Equal(t, NoticeID(a, ""), NoticeID(b, ""))
}
