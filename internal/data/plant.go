// Package data provides the entity types and storage layer for the plant
// catalog: plants, hardiness zones, bloom seasons and the join records
// between them.
package data

import (
	"strings"
	"time"
)

// LightLevel is the light requirement of a plant. The catalog uses the
// three-level scheme; the zero value means "not recorded".
type LightLevel string

const (
	LightLow    LightLevel = "low"
	LightMedium LightLevel = "medium"
	LightBright LightLevel = "bright"
)

// LightLevels lists every valid light level in ascending order.
var LightLevels = []LightLevel{LightLow, LightMedium, LightBright}

// Rank returns the position of l in the ascending light order, or -1 if l
// is not a known level.
func (l LightLevel) Rank() int {
	for i, v := range LightLevels {
		if v == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the known light levels.
func (l LightLevel) Valid() bool { return l.Rank() >= 0 }

// WaterNeed is how much watering a plant requires.
type WaterNeed string

const (
	WaterLow    WaterNeed = "low"
	WaterMedium WaterNeed = "medium"
	WaterHigh   WaterNeed = "high"
)

// WaterNeeds lists every valid water need in ascending order.
var WaterNeeds = []WaterNeed{WaterLow, WaterMedium, WaterHigh}

// Valid reports whether w is one of the known water needs.
func (w WaterNeed) Valid() bool {
	for _, v := range WaterNeeds {
		if v == w {
			return true
		}
	}
	return false
}

// HeightCategory buckets a plant's mature height.
type HeightCategory string

const (
	HeightShort  HeightCategory = "Short"
	HeightMedium HeightCategory = "Medium"
	HeightTall   HeightCategory = "Tall"
)

// HeightCategories lists every valid height category.
var HeightCategories = []HeightCategory{HeightShort, HeightMedium, HeightTall}

// Valid reports whether h is one of the known height categories.
func (h HeightCategory) Valid() bool {
	for _, v := range HeightCategories {
		if v == h {
			return true
		}
	}
	return false
}

// ParseLightLevel maps s onto a LightLevel, ignoring case and surrounding
// whitespace.
func ParseLightLevel(s string) (LightLevel, bool) {
	l := LightLevel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// ParseWaterNeed maps s onto a WaterNeed, ignoring case and surrounding
// whitespace.
func ParseWaterNeed(s string) (WaterNeed, bool) {
	w := WaterNeed(strings.ToLower(strings.TrimSpace(s)))
	return w, w.Valid()
}

// ParseHeightCategory maps s onto its canonical HeightCategory, ignoring
// case and surrounding whitespace.
func ParseHeightCategory(s string) (HeightCategory, bool) {
	s = strings.TrimSpace(s)
	for _, h := range HeightCategories {
		if strings.EqualFold(string(h), s) {
			return h, true
		}
	}
	return "", false
}

// Zone is a USDA hardiness zone label such as "5a".
type Zone struct {
	ID   int64  `json:"id"`
	Zone string `json:"zone"`
}

// BloomSeason is a season during which plants flower.
type BloomSeason struct {
	ID          int64  `json:"id"`
	Season      string `json:"season"`
	Description string `json:"description,omitempty"`
}

// Plant is a catalog record with its zone and bloom season relations
// joined in.
type Plant struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	ScientificName string         `json:"scientificName"`
	Description    string         `json:"description"`
	ImageURL       string         `json:"imageUrl,omitempty"`
	ImageKey       string         `json:"imageKey,omitempty"`
	LightLevel     LightLevel     `json:"lightLevel,omitempty"`
	WaterNeeds     WaterNeed      `json:"waterNeeds,omitempty"`
	BloomTime      string         `json:"bloomTime,omitempty"`
	Height         string         `json:"height,omitempty"`
	HeightCategory HeightCategory `json:"heightCategory,omitempty"`
	Width          string         `json:"width,omitempty"`
	Temperature    string         `json:"temperature,omitempty"`
	Humidity       string         `json:"humidity,omitempty"`
	Care           string         `json:"care,omitempty"`
	CommonIssues   string         `json:"commonIssues,omitempty"`
	Zones          []Zone         `json:"zones"`
	BloomSeasons   []BloomSeason  `json:"bloomSeasons"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ZoneLabels returns the labels of the plant's zones.
func (p *Plant) ZoneLabels() []string {
	labels := make([]string, 0, len(p.Zones))
	for _, z := range p.Zones {
		labels = append(labels, z.Zone)
	}
	return labels
}

// SeasonLabels returns the labels of the plant's bloom seasons.
func (p *Plant) SeasonLabels() []string {
	labels := make([]string, 0, len(p.BloomSeasons))
	for _, s := range p.BloomSeasons {
		labels = append(labels, s.Season)
	}
	return labels
}

// Clone returns a deep copy of p.
func (p *Plant) Clone() *Plant {
	c := *p
	c.Zones = append([]Zone(nil), p.Zones...)
	c.BloomSeasons = append([]BloomSeason(nil), p.BloomSeasons...)
	if c.Zones == nil {
		c.Zones = []Zone{}
	}
	if c.BloomSeasons == nil {
		c.BloomSeasons = []BloomSeason{}
	}
	return &c
}

// PlantInput holds the fields a client supplies when creating or replacing
// a plant. Zones and bloom seasons are given by label and resolved with an
// upsert, so unknown labels are created on the fly.
type PlantInput struct {
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName"`
	Description    string   `json:"description"`
	ImageURL       string   `json:"imageUrl"`
	LightLevel     string   `json:"lightLevel"`
	WaterNeeds     string   `json:"waterNeeds"`
	BloomTime      string   `json:"bloomTime"`
	Height         string   `json:"height"`
	HeightCategory string   `json:"heightCategory"`
	Width          string   `json:"width"`
	Temperature    string   `json:"temperature"`
	Humidity       string   `json:"humidity"`
	Care           string   `json:"care"`
	CommonIssues   string   `json:"commonIssues"`
	Zones          []string `json:"zones"`
	BloomSeasons   []string `json:"bloomSeasons"`
}

// Apply copies the input onto p. It assumes the input has passed
// ValidatePlantInput. Identifier, image key and timestamps are untouched.
func (in PlantInput) Apply(p *Plant) {
	p.Name = strings.TrimSpace(in.Name)
	p.ScientificName = strings.TrimSpace(in.ScientificName)
	p.Description = in.Description
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.LightLevel, _ = ParseLightLevel(in.LightLevel)
	p.WaterNeeds, _ = ParseWaterNeed(in.WaterNeeds)
	p.BloomTime = in.BloomTime
	p.Height = in.Height
	p.HeightCategory, _ = ParseHeightCategory(in.HeightCategory)
	p.Width = in.Width
	p.Temperature = in.Temperature
	p.Humidity = in.Humidity
	p.Care = in.Care
	p.CommonIssues = in.CommonIssues

	p.Zones = make([]Zone, 0, len(in.Zones))
	for _, z := range uniqueFold(in.Zones, strings.ToLower) {
		p.Zones = append(p.Zones, Zone{Zone: z})
	}
	p.BloomSeasons = make([]BloomSeason, 0, len(in.BloomSeasons))
	for _, s := range uniqueFold(in.BloomSeasons, CanonicalSeason) {
		p.BloomSeasons = append(p.BloomSeasons, BloomSeason{Season: s})
	}
}

// CanonicalSeason title-cases a season label ("summer" -> "Summer").
func CanonicalSeason(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// uniqueFold trims, normalizes and deduplicates labels, dropping empties
// and keeping first-seen order.
func uniqueFold(labels []string, norm func(string) string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = norm(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
