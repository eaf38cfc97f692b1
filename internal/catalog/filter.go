package catalog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/yoyothesheep/MySoilMate/internal/data"
)

// predicate reports whether a plant satisfies one filter category.
type predicate func(p *data.Plant) bool

// Filter returns the plants that satisfy every active category of spec.
// Categories combine with AND; values within a category combine with OR.
// The input slice is not modified and the result preserves input order.
func Filter(plants []*data.Plant, spec FilterSpec) []*data.Plant {
	preds := predicates(spec)

	out := make([]*data.Plant, 0, len(plants))
	for _, p := range plants {
		if matchesAll(p, preds) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAll(p *data.Plant, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

// predicates builds one predicate per active category. Inactive
// categories contribute nothing, so an empty spec matches everything.
func predicates(spec FilterSpec) []predicate {
	var preds []predicate

	if spec.Search != "" {
		needle := strings.ToLower(spec.Search)
		preds = append(preds, func(p *data.Plant) bool {
			return strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.ScientificName), needle) ||
				strings.Contains(strings.ToLower(p.Description), needle)
		})
	}
	if len(spec.LightLevels) > 0 {
		preds = append(preds, func(p *data.Plant) bool {
			return slices.Contains(spec.LightLevels, p.LightLevel)
		})
	}
	if len(spec.WaterNeeds) > 0 {
		preds = append(preds, func(p *data.Plant) bool {
			return slices.Contains(spec.WaterNeeds, p.WaterNeeds)
		})
	}
	if len(spec.HeightCategories) > 0 {
		preds = append(preds, func(p *data.Plant) bool {
			return slices.Contains(spec.HeightCategories, p.HeightCategory)
		})
	}
	if len(spec.GrowZones) > 0 {
		preds = append(preds, func(p *data.Plant) bool {
			for _, z := range p.Zones {
				for _, want := range spec.GrowZones {
					if zoneMatches(want, z.Zone) {
						return true
					}
				}
			}
			return false
		})
	}
	if len(spec.BloomSeasons) > 0 {
		preds = append(preds, func(p *data.Plant) bool {
			for _, s := range p.BloomSeasons {
				if slices.Contains(spec.BloomSeasons, data.CanonicalSeason(s.Season)) {
					return true
				}
			}
			return false
		})
	}

	return preds
}

// zoneMatches reports whether a filter value selects a plant's zone label.
// Labels match exactly (ignoring case); a bare zone number also matches
// every sub-zone of that number, so "6" selects "6a" and "6b".
func zoneMatches(want, label string) bool {
	if strings.EqualFold(want, label) {
		return true
	}
	wantNum, err := strconv.Atoi(want)
	if err != nil {
		return false
	}
	n, ok := zoneNumber(label)
	return ok && n == wantNum
}

// zoneNumber extracts the numeric part of a zone label by stripping any
// trailing sub-zone letters: "5a" -> 5, "10b" -> 10.
func zoneNumber(label string) (int, bool) {
	label = strings.TrimSpace(label)
	end := len(label)
	for end > 0 && !isDigit(label[end-1]) {
		end--
	}
	n, err := strconv.Atoi(label[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }
