package data

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Compile-time interface guard.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store held entirely in process memory. It is used as the
// fixture store in tests and for throwaway runs with -store=memory.
// Every read returns deep copies, so callers may mutate results freely.
type MemoryStore struct {
	mu sync.RWMutex

	plants  map[int64]*Plant
	zones   map[string]*Zone
	seasons map[string]*BloomSeason

	nextPlantID  int64
	nextZoneID   int64
	nextSeasonID int64

	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plants:  make(map[int64]*Plant),
		zones:   make(map[string]*Zone),
		seasons: make(map[string]*BloomSeason),
		now:     time.Now,
	}
}

// AllPlants returns copies of every plant in insertion order.
func (m *MemoryStore) AllPlants(_ context.Context) ([]*Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.plants))
	for id := range m.plants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	plants := make([]*Plant, 0, len(ids))
	for _, id := range ids {
		plants = append(plants, m.hydrate(m.plants[id]))
	}
	return plants, nil
}

// GetPlant returns a copy of one plant, or ErrRecordNotFound.
func (m *MemoryStore) GetPlant(_ context.Context, id int64) (*Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plants[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return m.hydrate(p), nil
}

// InsertPlant assigns the next id and timestamps and stores a copy.
func (m *MemoryStore) InsertPlant(_ context.Context, plant *Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPlantID++
	plant.ID = m.nextPlantID
	plant.CreatedAt = m.now().UTC()
	plant.UpdatedAt = plant.CreatedAt
	m.resolveLinks(plant)

	m.plants[plant.ID] = plant.Clone()
	return nil
}

// UpdatePlant replaces a stored plant, keeping its creation time.
func (m *MemoryStore) UpdatePlant(_ context.Context, plant *Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.plants[plant.ID]
	if !ok {
		return ErrRecordNotFound
	}
	plant.CreatedAt = existing.CreatedAt
	plant.UpdatedAt = m.now().UTC()
	m.resolveLinks(plant)

	m.plants[plant.ID] = plant.Clone()
	return nil
}

// DeletePlant removes a plant and its links.
func (m *MemoryStore) DeletePlant(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plants[id]; !ok {
		return ErrRecordNotFound
	}
	delete(m.plants, id)
	return nil
}

// SetPlantImage records the image key or external URL for a plant.
func (m *MemoryStore) SetPlantImage(_ context.Context, id int64, key, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plants[id]
	if !ok {
		return ErrRecordNotFound
	}
	p.ImageKey = key
	p.ImageURL = url
	p.UpdatedAt = m.now().UTC()
	return nil
}

// UpsertZone returns the zone with the given label, creating it if needed.
func (m *MemoryStore) UpsertZone(_ context.Context, label string) (*Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	z := m.upsertZone(label)
	return &Zone{ID: z.ID, Zone: z.Zone}, nil
}

// UpsertBloomSeason returns the named season, creating it if needed.
func (m *MemoryStore) UpsertBloomSeason(_ context.Context, season, description string) (*BloomSeason, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.upsertSeason(season)
	if description != "" {
		s.Description = description
	}
	c := *s
	return &c, nil
}

// Zones lists every zone in creation order.
func (m *MemoryStore) Zones(_ context.Context) ([]*Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zones := make([]*Zone, 0, len(m.zones))
	for _, z := range m.zones {
		c := *z
		zones = append(zones, &c)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones, nil
}

// BloomSeasons lists every bloom season in creation order.
func (m *MemoryStore) BloomSeasons(_ context.Context) ([]*BloomSeason, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seasons := make([]*BloomSeason, 0, len(m.seasons))
	for _, s := range m.seasons {
		c := *s
		seasons = append(seasons, &c)
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].ID < seasons[j].ID })
	return seasons, nil
}

// hydrate copies p and refreshes its season rows, whose descriptions may
// have changed since the plant was linked. Callers hold m.mu.
func (m *MemoryStore) hydrate(p *Plant) *Plant {
	c := p.Clone()
	for i, s := range c.BloomSeasons {
		if cur, ok := m.seasons[s.Season]; ok {
			c.BloomSeasons[i] = *cur
		}
	}
	return c
}

// resolveLinks replaces the plant's zone and season references with the
// stored rows, creating missing ones. Callers hold m.mu.
func (m *MemoryStore) resolveLinks(plant *Plant) {
	zones := make([]Zone, 0, len(plant.Zones))
	seenZone := make(map[int64]bool)
	for _, z := range plant.Zones {
		stored := m.upsertZone(z.Zone)
		if seenZone[stored.ID] {
			continue
		}
		seenZone[stored.ID] = true
		zones = append(zones, *stored)
	}
	plant.Zones = zones

	seasons := make([]BloomSeason, 0, len(plant.BloomSeasons))
	seenSeason := make(map[int64]bool)
	for _, s := range plant.BloomSeasons {
		stored := m.upsertSeason(s.Season)
		if seenSeason[stored.ID] {
			continue
		}
		seenSeason[stored.ID] = true
		seasons = append(seasons, *stored)
	}
	plant.BloomSeasons = seasons
}

func (m *MemoryStore) upsertZone(label string) *Zone {
	label = strings.ToLower(strings.TrimSpace(label))
	if z, ok := m.zones[label]; ok {
		return z
	}
	m.nextZoneID++
	z := &Zone{ID: m.nextZoneID, Zone: label}
	m.zones[label] = z
	return z
}

func (m *MemoryStore) upsertSeason(season string) *BloomSeason {
	season = CanonicalSeason(season)
	if s, ok := m.seasons[season]; ok {
		return s
	}
	m.nextSeasonID++
	s := &BloomSeason{ID: m.nextSeasonID, Season: season}
	m.seasons[season] = s
	return s
}
