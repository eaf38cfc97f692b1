// Package catalog implements plant listing: filtering, sorting and
// pagination over the joined plant set, plus the single-plant and admin
// operations the HTTP layer calls.
package catalog

import (
	"strings"

	"github.com/yoyothesheep/MySoilMate/internal/data"
	"github.com/yoyothesheep/MySoilMate/internal/validator"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 15
	MaxPageSize     = 100
	maxPage         = 10_000_000
	maxSearchLength = 200
)

// SortKey selects the ordering of a listing.
type SortKey string

const (
	// SortNone keeps store order, which is insertion (id) order.
	SortNone  SortKey = ""
	SortName  SortKey = "name"
	SortLight SortKey = "light"
	SortZone  SortKey = "zone"
)

// SortSafeList holds the accepted sort keys.
var SortSafeList = []SortKey{SortNone, SortName, SortLight, SortZone}

// FilterSpec is a validated description of one listing request. Every
// value list is normalized to canonical labels; an empty list imposes no
// constraint.
type FilterSpec struct {
	Search           string
	LightLevels      []data.LightLevel
	WaterNeeds       []data.WaterNeed
	GrowZones        []string
	BloomSeasons     []string
	HeightCategories []data.HeightCategory
	Sort             SortKey
	Page             int
	PageSize         int
}

// FilterInput holds raw listing parameters as read from a request.
type FilterInput struct {
	Search           string
	LightLevels      []string
	WaterNeeds       []string
	GrowZones        []string
	BloomSeasons     []string
	HeightCategories []string
	Sort             string
	Page             int
	PageSize         int
}

// ParseFilters validates in, recording problems on v, and returns the
// normalized FilterSpec. The result is only meaningful when v is valid.
func ParseFilters(v *validator.Validator, in FilterInput) FilterSpec {
	spec := FilterSpec{
		Search:   strings.TrimSpace(in.Search),
		Sort:     SortKey(strings.ToLower(strings.TrimSpace(in.Sort))),
		Page:     in.Page,
		PageSize: in.PageSize,
	}

	v.Check(len(spec.Search) <= maxSearchLength, "search", "must not be more than 200 bytes long")
	v.Check(spec.Page > 0, "page", "must be greater than zero")
	v.Check(spec.Page <= maxPage, "page", "must be a maximum of 10 million")
	v.Check(spec.PageSize > 0, "limit", "must be greater than zero")
	v.Check(spec.PageSize <= MaxPageSize, "limit", "must be a maximum of 100")
	v.Check(validator.In(spec.Sort, SortSafeList...), "sort", "invalid sort value")

	for _, s := range in.LightLevels {
		l, ok := data.ParseLightLevel(s)
		v.Check(ok, "lightLevels", "must contain only low, medium or bright")
		if ok && !validator.In(l, spec.LightLevels...) {
			spec.LightLevels = append(spec.LightLevels, l)
		}
	}
	for _, s := range in.WaterNeeds {
		w, ok := data.ParseWaterNeed(s)
		v.Check(ok, "waterNeeds", "must contain only low, medium or high")
		if ok && !validator.In(w, spec.WaterNeeds...) {
			spec.WaterNeeds = append(spec.WaterNeeds, w)
		}
	}
	for _, s := range in.HeightCategories {
		h, ok := data.ParseHeightCategory(s)
		v.Check(ok, "heightTexts", "must contain only Short, Medium or Tall")
		if ok && !validator.In(h, spec.HeightCategories...) {
			spec.HeightCategories = append(spec.HeightCategories, h)
		}
	}
	for _, s := range in.GrowZones {
		z := strings.ToLower(strings.TrimSpace(s))
		v.Check(validator.Matches(z, data.ZoneRX), "growZones", "must contain hardiness zones such as 5a or 7")
		if !validator.In(z, spec.GrowZones...) {
			spec.GrowZones = append(spec.GrowZones, z)
		}
	}
	for _, s := range in.BloomSeasons {
		season := data.CanonicalSeason(s)
		v.Check(validator.In(season, data.Seasons...), "bloomSeasons", "must contain only Spring, Summer, Fall or Winter")
		if !validator.In(season, spec.BloomSeasons...) {
			spec.BloomSeasons = append(spec.BloomSeasons, season)
		}
	}

	return spec
}
