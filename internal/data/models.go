// internal/data/models.go
package data

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when a lookup or write targets a plant that
// does not exist.
var ErrRecordNotFound = errors.New("record not found")

// Store is the persistence boundary for the catalog. The same listing logic
// runs against MemoryStore in tests and SQLStore in production.
type Store interface {
	// AllPlants returns every plant with zones and bloom seasons joined,
	// in insertion (id) order.
	AllPlants(ctx context.Context) ([]*Plant, error)
	GetPlant(ctx context.Context, id int64) (*Plant, error)

	// InsertPlant assigns the plant's ID and timestamps, upserts the zone
	// and season labels it carries and links them.
	InsertPlant(ctx context.Context, plant *Plant) error
	// UpdatePlant replaces the scalar fields and both link sets.
	UpdatePlant(ctx context.Context, plant *Plant) error
	DeletePlant(ctx context.Context, id int64) error
	SetPlantImage(ctx context.Context, id int64, key, url string) error

	UpsertZone(ctx context.Context, label string) (*Zone, error)
	UpsertBloomSeason(ctx context.Context, season, description string) (*BloomSeason, error)
	Zones(ctx context.Context) ([]*Zone, error)
	BloomSeasons(ctx context.Context) ([]*BloomSeason, error)
}
