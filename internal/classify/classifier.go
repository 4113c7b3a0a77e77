package classify

import (
	"strings"

	"github.com/sells-group/iwash/internal/model"
)

const (
	brandWeight   = 2
	genericWeight = 1
	fuelBoost     = 1
)

// Scores holds the per-category keyword scores for one place.
type Scores struct {
	FullService int `json:"fullservice"`
	NonContact  int `json:"noncontact"`
	Contact     int `json:"contact"`
}

// Max returns the highest of the three scores.
func (s Scores) Max() int {
	return max(s.FullService, s.NonContact, s.Contact)
}

// Decision is the outcome of classifying one place including the override rules.
type Decision struct {
	Type       model.ServiceType `json:"type"`
	Scores     Scores            `json:"scores"`
	Excluded   bool              `json:"excluded"`
	Overridden bool              `json:"overridden"`
}

type keywordSet struct {
	brands  []string
	generic []string
}

func (k keywordSet) score(blob string) int {
	n := 0
	for _, kw := range k.brands {
		if strings.Contains(blob, kw) {
			n += brandWeight
		}
	}
	for _, kw := range k.generic {
		if strings.Contains(blob, kw) {
			n += genericWeight
		}
	}
	return n
}

// Classifier scores places against a set of keyword tables. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	fullService keywordSet
	nonContact  keywordSet
	contact     keywordSet
	fuelTags    []string
	force       []string
	exclude     []string
}

// New builds a Classifier from tables. Keywords are folded once here so
// tables may be written with diacritics or mixed case.
func New(t Tables) *Classifier {
	return &Classifier{
		fullService: foldSet(t.FullService),
		nonContact:  foldSet(t.NonContact),
		contact:     foldSet(t.Contact),
		fuelTags:    foldAll(t.FuelStationTags),
		force:       foldAll(t.ForceFullService),
		exclude:     foldAll(t.Exclude),
	}
}

// Default returns a Classifier over DefaultTables.
func Default() *Classifier {
	return New(DefaultTables())
}

// Scores computes the raw keyword scores without applying overrides.
func (c *Classifier) Scores(name string, tags []string, address string) Scores {
	blob := fold(name + " " + strings.Join(tags, " ") + " " + address)
	typesText := strings.ToLower(strings.Join(tags, " "))

	s := Scores{
		FullService: c.fullService.score(blob),
		NonContact:  c.nonContact.score(blob),
		Contact:     c.contact.score(blob),
	}
	for _, tag := range c.fuelTags {
		if strings.Contains(typesText, tag) {
			s.Contact += fuelBoost
			break
		}
	}
	return s
}

// Infer maps name, tags and address to a service type by keyword score.
// Ties resolve FULLSERVICE, then NONCONTACT, then CONTACT.
func (c *Classifier) Infer(name string, tags []string, address string) model.ServiceType {
	return pick(c.Scores(name, tags, address))
}

func pick(s Scores) model.ServiceType {
	m := s.Max()
	switch {
	case m < 1:
		return model.ServiceUnknown
	case s.FullService == m:
		return model.ServiceFullService
	case s.NonContact == m:
		return model.ServiceNonContact
	default:
		return model.ServiceContact
	}
}

// Excluded reports whether the place is a known false positive that must be
// dropped from results.
func (c *Classifier) Excluded(name, address string) bool {
	return matchAny(c.exclude, fold(name), fold(address))
}

// Overridden reports whether the place is forced to FULLSERVICE.
func (c *Classifier) Overridden(name, address string) bool {
	return matchAny(c.force, fold(name), fold(address))
}

// Classify applies exclusion, then the FULLSERVICE override, then keyword
// scoring. An excluded decision carries no type.
func (c *Classifier) Classify(name string, tags []string, address string) Decision {
	if c.Excluded(name, address) {
		return Decision{Excluded: true}
	}

	s := c.Scores(name, tags, address)
	if c.Overridden(name, address) {
		return Decision{Type: model.ServiceFullService, Scores: s, Overridden: true}
	}
	return Decision{Type: pick(s), Scores: s}
}

func matchAny(subs []string, fields ...string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		for _, sub := range subs {
			if strings.Contains(f, sub) {
				return true
			}
		}
	}
	return false
}

func foldSet(k Keywords) keywordSet {
	return keywordSet{brands: foldAll(k.Brands), generic: foldAll(k.Generic)}
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := fold(strings.TrimSpace(s)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
