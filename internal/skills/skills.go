// Package skills normalizes skill tokens for comparison between profiles and job listings.
package skills

import (
	"strings"

	"golang.org/x/text/cases"
)

// aliases maps common skill name variants to a canonical key.
var aliases = map[string]string{
	"golang":   "go",
	"go lang":  "go",
	"js":       "javascript",
	"ts":       "typescript",
	"k8s":      "kubernetes",
	"react.js": "react",
	"reactjs":  "react",
	"vue.js":   "vue",
	"vuejs":    "vue",
	"nodejs":   "node.js",
	"postgres": "postgresql",
	"py":       "python",
	"ml":       "machine learning",
	"tf":       "tensorflow",
	"gcp":      "google cloud",
}

// Key returns the case-folded, whitespace-trimmed form of a skill.
// Two skills are the same token under case-insensitive comparison iff their keys are equal.
func Key(skill string) string {
	return cases.Fold().String(strings.Join(strings.Fields(skill), " "))
}

// Canonical returns Key with known aliases resolved, e.g. "Golang" and "go" both yield "go".
func Canonical(skill string) string {
	key := Key(skill)
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// Vocabulary is a set of skill keys.
type Vocabulary struct {
	keys      map[string]struct{}
	canonical map[string]struct{}
}

// NewVocabulary builds a vocabulary from raw skill tokens. Empty tokens are ignored.
func NewVocabulary(skills []string) *Vocabulary {
	v := &Vocabulary{
		keys:      make(map[string]struct{}, len(skills)),
		canonical: make(map[string]struct{}, len(skills)),
	}
	for _, s := range skills {
		k := Key(s)
		if k == "" {
			continue
		}
		v.keys[k] = struct{}{}
		v.canonical[Canonical(s)] = struct{}{}
	}
	return v
}

// Len returns the number of distinct keys.
func (v *Vocabulary) Len() int {
	return len(v.keys)
}

// Contains reports whether skill matches a vocabulary entry case-insensitively.
func (v *Vocabulary) Contains(skill string) bool {
	_, ok := v.keys[Key(skill)]
	return ok
}

// ContainsCanonical is like Contains but also resolves aliases on both sides.
func (v *Vocabulary) ContainsCanonical(skill string) bool {
	_, ok := v.canonical[Canonical(skill)]
	return ok
}

// Unique returns skills with case-insensitive duplicates and empty tokens removed,
// keeping the first spelling of each and preserving order.
func Unique(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		k := Key(s)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
