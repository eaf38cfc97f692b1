package data

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yoyothesheep/MySoilMate/internal/validator"
)

// ZoneRX matches USDA hardiness zone labels: a zone number 1-13 with an
// optional a/b sub-zone.
var ZoneRX = regexp.MustCompile(`^(1[0-3]|[1-9])[ab]?$`)

// ValidatePlantInput records every problem with in on v.
func ValidatePlantInput(v *validator.Validator, in PlantInput) {
	v.Check(strings.TrimSpace(in.Name) != "", "name", "must be provided")
	v.Check(utf8.RuneCountInString(in.Name) <= 200, "name", "must not be more than 200 characters long")
	v.Check(strings.TrimSpace(in.ScientificName) != "", "scientificName", "must be provided")
	v.Check(utf8.RuneCountInString(in.ScientificName) <= 200, "scientificName", "must not be more than 200 characters long")

	if in.ImageURL != "" {
		u, err := url.Parse(strings.TrimSpace(in.ImageURL))
		v.Check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
			"imageUrl", "must be an absolute http(s) URL")
	}
	if in.LightLevel != "" {
		_, ok := ParseLightLevel(in.LightLevel)
		v.Check(ok, "lightLevel", "must be one of low, medium, bright")
	}
	if in.WaterNeeds != "" {
		_, ok := ParseWaterNeed(in.WaterNeeds)
		v.Check(ok, "waterNeeds", "must be one of low, medium, high")
	}
	if in.HeightCategory != "" {
		_, ok := ParseHeightCategory(in.HeightCategory)
		v.Check(ok, "heightCategory", "must be one of Short, Medium, Tall")
	}

	for _, z := range in.Zones {
		v.Check(validator.Matches(strings.ToLower(strings.TrimSpace(z)), ZoneRX), "zones", "must contain hardiness zones such as 5a or 7")
	}
	for _, s := range in.BloomSeasons {
		v.Check(validator.In(CanonicalSeason(s), Seasons...), "bloomSeasons", "must contain only Spring, Summer, Fall or Winter")
	}
}

// Seasons lists the bloom season labels the catalog accepts.
var Seasons = []string{"Spring", "Summer", "Fall", "Winter"}
