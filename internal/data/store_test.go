package data

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresDSNEnv names a PostgreSQL database the store suite may use. Its
// catalog tables are emptied before each test.
const postgresDSNEnv = "MYSOILMATE_TEST_POSTGRES_DSN"

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQL(context.Background(), SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))))
	return s
}

func newPostgresStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}

	ctx := context.Background()
	s, err := OpenSQL(ctx, Postgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err = s.DB.ExecContext(ctx, `TRUNCATE plants, zones, bloom_seasons RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return s
}

func stores(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory":   func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite":   func(t *testing.T) Store { return newSQLiteStore(t) },
		"postgres": func(t *testing.T) Store { return newPostgresStore(t) },
	}
}

func TestSQLStore_UsableAfterMigrate(t *testing.T) {
	for name, open := range map[string]func(t *testing.T) *SQLStore{
		"sqlite":   newSQLiteStore,
		"postgres": newPostgresStore,
	} {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			// A second run finds nothing to apply and must leave the pool open.
			require.NoError(t, s.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))))
			require.NoError(t, s.DB.PingContext(ctx))

			all, err := s.AllPlants(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			p := newPlant("Lupine", []string{"4b"}, []string{"Summer"})
			require.NoError(t, s.InsertPlant(ctx, p))

			got, err := s.GetPlant(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "Lupine", got.Name)
			assert.Equal(t, []string{"4b"}, got.ZoneLabels())
		})
	}
}

func newPlant(name string, zones []string, seasons []string) *Plant {
	p := &Plant{}
	PlantInput{
		Name:           name,
		ScientificName: name + " officinalis",
		Description:    "about " + name,
		LightLevel:     "medium",
		WaterNeeds:     "low",
		HeightCategory: "Tall",
		Zones:          zones,
		BloomSeasons:   seasons,
	}.Apply(p)
	return p
}

func TestStore_InsertGetRoundTrip(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			p := newPlant("Sage", []string{"5a", "6b"}, []string{"Summer"})
			require.NoError(t, s.InsertPlant(ctx, p))
			require.NotZero(t, p.ID)

			got, err := s.GetPlant(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, p.Name, got.Name)
			assert.Equal(t, p.ScientificName, got.ScientificName)
			assert.Equal(t, p.Description, got.Description)
			assert.Equal(t, LightMedium, got.LightLevel)
			assert.Equal(t, WaterLow, got.WaterNeeds)
			assert.Equal(t, HeightTall, got.HeightCategory)
			assert.Equal(t, []string{"5a", "6b"}, got.ZoneLabels())
			assert.Equal(t, []string{"Summer"}, got.SeasonLabels())
			assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

			_, err = s.GetPlant(ctx, p.ID+100)
			assert.ErrorIs(t, err, ErrRecordNotFound)
		})
	}
}

func TestStore_AllPlantsInInsertionOrder(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			for _, n := range []string{"Yarrow", "Aster", "Mint"} {
				require.NoError(t, s.InsertPlant(ctx, newPlant(n, []string{"4a"}, nil)))
			}
			require.NoError(t, s.InsertPlant(ctx, newPlant("Bare", nil, nil)))

			all, err := s.AllPlants(ctx)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "Yarrow", all[0].Name)
			assert.Equal(t, "Aster", all[1].Name)
			assert.Equal(t, "Mint", all[2].Name)
			assert.Equal(t, []string{"4a"}, all[0].ZoneLabels())
			assert.NotNil(t, all[3].Zones)
			assert.Empty(t, all[3].Zones)
		})
	}
}

func TestStore_UpdateReplacesLinks(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			p := newPlant("Phlox", []string{"4a", "5a"}, []string{"Spring"})
			require.NoError(t, s.InsertPlant(ctx, p))

			p.Name = "Creeping Phlox"
			p.Zones = []Zone{{Zone: "3b"}}
			p.BloomSeasons = []BloomSeason{{Season: "Spring"}, {Season: "Summer"}}
			require.NoError(t, s.UpdatePlant(ctx, p))

			got, err := s.GetPlant(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "Creeping Phlox", got.Name)
			assert.Equal(t, []string{"3b"}, got.ZoneLabels())
			assert.Equal(t, []string{"Spring", "Summer"}, got.SeasonLabels())

			missing := newPlant("Ghost", nil, nil)
			missing.ID = 4242
			assert.ErrorIs(t, s.UpdatePlant(ctx, missing), ErrRecordNotFound)
		})
	}
}

func TestStore_DeleteCascades(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			p := newPlant("Iris", []string{"5a"}, []string{"Spring"})
			require.NoError(t, s.InsertPlant(ctx, p))
			require.NoError(t, s.DeletePlant(ctx, p.ID))

			_, err := s.GetPlant(ctx, p.ID)
			assert.ErrorIs(t, err, ErrRecordNotFound)
			assert.ErrorIs(t, s.DeletePlant(ctx, p.ID), ErrRecordNotFound)

			// Zones survive; only the join rows go.
			zones, err := s.Zones(ctx)
			require.NoError(t, err)
			assert.Len(t, zones, 1)
		})
	}
}

func TestStore_UpsertsAreIdempotent(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			a, err := s.UpsertZone(ctx, "6A")
			require.NoError(t, err)
			b, err := s.UpsertZone(ctx, "6a")
			require.NoError(t, err)
			assert.Equal(t, a.ID, b.ID)
			assert.Equal(t, "6a", b.Zone)

			first, err := s.UpsertBloomSeason(ctx, "fall", "Autumn color")
			require.NoError(t, err)
			again, err := s.UpsertBloomSeason(ctx, "Fall", "")
			require.NoError(t, err)
			assert.Equal(t, first.ID, again.ID)
			assert.Equal(t, "Autumn color", again.Description)

			seasons, err := s.BloomSeasons(ctx)
			require.NoError(t, err)
			require.Len(t, seasons, 1)
			assert.Equal(t, "Fall", seasons[0].Season)
		})
	}
}

func TestStore_SetPlantImage(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			p := newPlant("Fern", nil, nil)
			require.NoError(t, s.InsertPlant(ctx, p))
			require.NoError(t, s.SetPlantImage(ctx, p.ID, "abc.png", ""))

			got, err := s.GetPlant(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "abc.png", got.ImageKey)

			assert.ErrorIs(t, s.SetPlantImage(ctx, p.ID+1, "x.png", ""), ErrRecordNotFound)
		})
	}
}

func TestSQLStore_ReadDeduplicatesLegacyLinks(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	p := newPlant("Peony", []string{"5a"}, nil)
	require.NoError(t, s.InsertPlant(ctx, p))

	// Simulate a table written before the unique constraint existed.
	_, err := s.DB.Exec(`CREATE TABLE plant_zones_legacy AS SELECT * FROM plant_zones`)
	require.NoError(t, err)
	_, err = s.DB.Exec(`INSERT INTO plant_zones_legacy (id, plant_id, zone_id) SELECT id + 1000, plant_id, zone_id FROM plant_zones`)
	require.NoError(t, err)
	_, err = s.DB.Exec(`ALTER TABLE plant_zones RENAME TO plant_zones_strict`)
	require.NoError(t, err)
	_, err = s.DB.Exec(`ALTER TABLE plant_zones_legacy RENAME TO plant_zones`)
	require.NoError(t, err)

	got, err := s.GetPlant(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"5a"}, got.ZoneLabels())
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{Dialect: Postgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &SQLStore{Dialect: SQLite}
	assert.Equal(t, "WHERE a = ?", lite.rebind("WHERE a = ?"))
}

func TestOpenSQL_RejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), Dialect("oracle"), "")
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))

			require.NoError(t, Seed(ctx, s, logger))
			require.NoError(t, Seed(ctx, s, logger))

			plants, err := s.AllPlants(ctx)
			require.NoError(t, err)
			assert.Len(t, plants, 6)

			zones, err := s.Zones(ctx)
			require.NoError(t, err)
			assert.Len(t, zones, 16)

			seasons, err := s.BloomSeasons(ctx)
			require.NoError(t, err)
			require.Len(t, seasons, 4)
			assert.Equal(t, "Spring", seasons[0].Season)
			assert.Equal(t, "March through May", seasons[0].Description)
		})
	}
}
