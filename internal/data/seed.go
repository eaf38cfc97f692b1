package data

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedRawData []byte

// seedFile is the top-level structure of the embedded seed catalog.
type seedFile struct {
	Zones        []string     `yaml:"zones"`
	BloomSeasons []seedSeason `yaml:"bloomSeasons"`
	Plants       []seedPlant  `yaml:"plants"`
}

type seedSeason struct {
	Season      string `yaml:"season"`
	Description string `yaml:"description"`
}

type seedPlant struct {
	Name           string   `yaml:"name"`
	ScientificName string   `yaml:"scientificName"`
	Description    string   `yaml:"description"`
	ImageURL       string   `yaml:"imageUrl"`
	LightLevel     string   `yaml:"lightLevel"`
	WaterNeeds     string   `yaml:"waterNeeds"`
	BloomTime      string   `yaml:"bloomTime"`
	Height         string   `yaml:"height"`
	HeightCategory string   `yaml:"heightCategory"`
	Width          string   `yaml:"width"`
	Temperature    string   `yaml:"temperature"`
	Humidity       string   `yaml:"humidity"`
	Care           string   `yaml:"care"`
	CommonIssues   string   `yaml:"commonIssues"`
	Zones          []string `yaml:"zones"`
	BloomSeasons   []string `yaml:"bloomSeasons"`
}

func (sp seedPlant) input() PlantInput {
	return PlantInput{
		Name:           sp.Name,
		ScientificName: sp.ScientificName,
		Description:    sp.Description,
		ImageURL:       sp.ImageURL,
		LightLevel:     sp.LightLevel,
		WaterNeeds:     sp.WaterNeeds,
		BloomTime:      sp.BloomTime,
		Height:         sp.Height,
		HeightCategory: sp.HeightCategory,
		Width:          sp.Width,
		Temperature:    sp.Temperature,
		Humidity:       sp.Humidity,
		Care:           sp.Care,
		CommonIssues:   sp.CommonIssues,
		Zones:          sp.Zones,
		BloomSeasons:   sp.BloomSeasons,
	}
}

// Seed upserts the reference zones and bloom seasons from the embedded
// catalog and, when the store holds no plants yet, inserts the sample
// plants. Running it repeatedly is harmless.
func Seed(ctx context.Context, store Store, logger *slog.Logger) error {
	var f seedFile
	if err := yaml.Unmarshal(seedRawData, &f); err != nil {
		return fmt.Errorf("seed: parse yaml: %w", err)
	}

	for _, z := range f.Zones {
		if _, err := store.UpsertZone(ctx, z); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, s := range f.BloomSeasons {
		if _, err := store.UpsertBloomSeason(ctx, s.Season, s.Description); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	existing, err := store.AllPlants(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog already populated, skipping sample plants", "plants", len(existing))
		return nil
	}

	for _, sp := range f.Plants {
		plant := &Plant{}
		sp.input().Apply(plant)
		if err := store.InsertPlant(ctx, plant); err != nil {
			return fmt.Errorf("seed plant %q: %w", sp.Name, err)
		}
	}
	logger.Info("seeded catalog", "zones", len(f.Zones), "bloom_seasons", len(f.BloomSeasons), "plants", len(f.Plants))
	return nil
}
