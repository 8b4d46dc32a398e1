// Package pointvalue resolves the weight a point contributes to its segment.
package pointvalue

import (
	"fmt"
	"strings"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
)

// Rule multiplies points whose result or stroke matches one of its values.
type Rule struct {
	Results []string `json:"results,omitempty"`
	Strokes []string `json:"strokes,omitempty"`
	Value   int      `json:"value"`
}

// Point is the metadata a rule can match against.
type Point struct {
	Result string
	Stroke string
}

// Matches reports whether the rule applies to the point. Comparison ignores
// case.
func (r Rule) Matches(p Point) bool {
	return containsFold(r.Results, p.Result) || containsFold(r.Strokes, p.Stroke)
}

// Validate rejects rules that can never match or carry a negative value.
func (r Rule) Validate() error {
	if len(r.Results) == 0 && len(r.Strokes) == 0 {
		return fmt.Errorf("multiplier rule needs at least one result or stroke")
	}
	if r.Value < 0 {
		return fmt.Errorf("multiplier value must not be negative, got %d", r.Value)
	}
	return nil
}

// Resolve returns the value of the first matching rule, or 1.
func Resolve(p Point, rules []Rule) int {
	for _, rule := range rules {
		if rule.Matches(p) {
			return rule.Value
		}
	}
	return 1
}

// Applies reports whether multipliers count in sets of the given kind. Games
// always advance one point at a time.
func Applies(kind format.SetKind) bool {
	switch kind {
	case format.SetAggregate, format.SetTiebreakOnly:
		return true
	case format.SetStandard, format.SetTimed:
		return false
	default:
		return false
	}
}

// Weight resolves the point weight for a set of the given kind.
func Weight(kind format.SetKind, p Point, rules []Rule) int {
	if !Applies(kind) {
		return 1
	}
	return Resolve(p, rules)
}

func containsFold(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
