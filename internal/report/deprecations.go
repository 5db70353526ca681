package report

import (
	"fmt"
	"io"
	"regexp"
	"sort"
)

const deprecationsTopN = 20

// deprecatedSymbol captures the quoted symbol at the start of messages like
// "'foo(bar:)' was deprecated in iOS 16.0: use baz".
var deprecatedSymbol = regexp.MustCompile(`^'([^']+)' (?:was|is) deprecated`)

type deprecatedAPI struct {
	Symbol string
	Count  int
	Files  int
}

// deprecationsSection ranks deprecated APIs by how often they are used.
type deprecationsSection struct {
	apis []deprecatedAPI
}

func (s *deprecationsSection) Name() string        { return "deprecations" }
func (s *deprecationsSection) Description() string { return "Most-used deprecated APIs" }

func (s *deprecationsSection) Analyze(in *Input) error {
	counts := make(map[string]int)
	files := make(map[string]map[string]bool)
	for _, n := range in.Notices {
		if !n.Type.IsDeprecation() {
			continue
		}
		sym := n.Title
		if m := deprecatedSymbol.FindStringSubmatch(n.Title); m != nil {
			sym = m[1]
		}
		counts[sym]++
		if files[sym] == nil {
			files[sym] = make(map[string]bool)
		}
		if p := n.FilePath(); p != "" {
			files[sym][p] = true
		}
	}
	if len(counts) == 0 {
		return fmt.Errorf("deprecations: none found: %w", ErrDataNotAvailable)
	}

	apis := make([]deprecatedAPI, 0, len(counts))
	for sym, c := range counts {
		apis = append(apis, deprecatedAPI{Symbol: sym, Count: c, Files: len(files[sym])})
	}
	sort.Slice(apis, func(i, j int) bool {
		if apis[i].Count != apis[j].Count {
			return apis[i].Count > apis[j].Count
		}
		return apis[i].Symbol < apis[j].Symbol
	})
	if len(apis) > deprecationsTopN {
		apis = apis[:deprecationsTopN]
	}
	s.apis = apis
	return nil
}

func (s *deprecationsSection) Render(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("Deprecated APIs"))
	_, _ = fmt.Fprintf(w, "---------------\n")

	tbl := NewTable(
		Column{Header: "API", MaxWidth: 80},
		Column{Header: "Uses", Align: AlignRight},
		Column{Header: "Files", Align: AlignRight},
	)
	for _, a := range s.apis {
		tbl.AddRow(a.Symbol, itoa(a.Count), itoa(a.Files))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n")
	return nil
}
