// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package category

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/davetashner/buildsignal/internal/signal"
)

// compiledPattern is a pattern that is either a regex or, when the text
// is not a valid regex, a plain substring.
type compiledPattern struct {
	re  *regexp.Regexp
	sub string
}

func compile(p string) compiledPattern {
	re, err := regexp.Compile("(?i)" + p)
	if err != nil {
		return compiledPattern{sub: strings.ToLower(p)}
	}
	return compiledPattern{re: re}
}

func (c compiledPattern) match(lowerTitle string) bool {
	if c.re != nil {
		return c.re.MatchString(lowerTitle)
	}
	return c.sub != "" && strings.Contains(lowerTitle, c.sub)
}

type rule struct {
	cat      Category
	patterns []compiledPattern
}

// Matcher assigns notices to categories. Custom categories are tried
// before built-ins; within each set, categories are tried in sort order and
// the first match wins.
type Matcher struct {
	rules []rule
	other Category
	byID  map[string]Category
}

// NewMatcher builds a matcher from the built-in categories plus custom.
// Custom categories get negative sort orders in the order given, so they
// take precedence. A custom category reusing a built-in ID replaces it.
func NewMatcher(custom []Category) (*Matcher, error) {
	cats := BuiltIn()
	seen := make(map[string]bool)
	for i, c := range custom {
		if c.ID == "" {
			return nil, fmt.Errorf("custom category %d: empty id", i)
		}
		if c.ID == OtherID {
			return nil, fmt.Errorf("custom category %q: id is reserved", c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("custom category %q: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if c.Name == "" {
			c.Name = c.ID
		}
		c.Custom = true
		c.SortOrder = -len(custom) + i
		cats = append(cats, c)
	}

	m := &Matcher{byID: make(map[string]Category)}
	for _, c := range cats {
		if !c.Custom && seen[c.ID] {
			continue
		}
		m.byID[c.ID] = c
		if c.ID == OtherID {
			m.other = c
			continue
		}
		r := rule{cat: c}
		for _, p := range c.Patterns {
			r.patterns = append(r.patterns, compile(p))
		}
		m.rules = append(m.rules, r)
	}
	sort.SliceStable(m.rules, func(i, j int) bool {
		return m.rules[i].cat.SortOrder < m.rules[j].cat.SortOrder
	})
	return m, nil
}

// Categories returns all categories in match order, Other last.
func (m *Matcher) Categories() []Category {
	out := make([]Category, 0, len(m.rules)+1)
	for _, r := range m.rules {
		out = append(out, r.cat)
	}
	return append(out, m.other)
}

// Lookup returns the category with the given ID.
func (m *Matcher) Lookup(id string) (Category, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// Categorize returns the first category matching n, or Other.
func (m *Matcher) Categorize(n signal.Notice) Category {
	title := strings.ToLower(n.Title)
	for _, r := range m.rules {
		if r.cat.ID == DeprecationID && n.Type.IsDeprecation() {
			return r.cat
		}
		for _, p := range r.patterns {
			if p.match(title) {
				return r.cat
			}
		}
	}
	return m.other
}

// Group is the notices assigned to one category.
type Group struct {
	Category Category
	Notices  []signal.Notice
}

// Group partitions notices by category. Groups follow match order and
// empty groups are omitted; notices keep their input order.
func (m *Matcher) Group(notices []signal.Notice) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, n := range notices {
		c := m.Categorize(n)
		i, ok := idx[c.ID]
		if !ok {
			i = len(groups)
			idx[c.ID] = i
			groups = append(groups, Group{Category: c})
		}
		groups[i].Notices = append(groups[i].Notices, n)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Category.SortOrder < groups[j].Category.SortOrder
	})
	return groups
}

// Counts returns the number of notices per category ID.
func (m *Matcher) Counts(notices []signal.Notice) map[string]int {
	counts := make(map[string]int)
	for _, n := range notices {
		counts[m.Categorize(n).ID]++
	}
	return counts
}
