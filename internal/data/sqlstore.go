package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // Register the PostgreSQL driver with database/sql.
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Dialect identifies the SQL database behind a SQLStore.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Compile-time interface guard.
var _ Store = (*SQLStore)(nil)

// SQLStore implements Store on a relational database. Queries are written
// with ? placeholders and rebound for the active dialect.
type SQLStore struct {
	DB      *sql.DB
	Dialect Dialect

	now func() time.Time
}

// querier is the subset of *sql.DB and *sql.Tx the store needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQL opens a connection pool for the given dialect, verifies it is
// reachable and applies dialect-specific settings. It does not migrate.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", dialect)
	}

	// sql.Open only validates the DSN format; it does not actually connect yet.
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == SQLite {
		// SQLite performs best with a single write connection, and an
		// in-memory database only exists on the connection that created it.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxIdleTime(15 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if dialect == SQLite {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA foreign_keys=ON",
		}
		for _, p := range pragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				db.Close()
				return nil, fmt.Errorf("exec %q: %w", p, err)
			}
		}
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an already open database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{DB: db, Dialect: dialect, now: time.Now}
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.DB.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timestamp returns the current time at the precision PostgreSQL keeps, so
// values round-trip unchanged.
func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// tx executes fn within a database transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *SQLStore) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

const plantColumns = `p.id, p.name, p.scientific_name, p.description, p.image_url, p.image_key,
	p.light_level, p.water_needs, p.bloom_time, p.height, p.height_category, p.width,
	p.temperature, p.humidity, p.care, p.common_issues, p.created_at, p.updated_at`

// scanPlant reads one row selected with plantColumns.
func scanPlant(row interface{ Scan(...any) error }) (*Plant, error) {
	var p Plant
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.ScientificName,
		&p.Description,
		&p.ImageURL,
		&p.ImageKey,
		&p.LightLevel,
		&p.WaterNeeds,
		&p.BloomTime,
		&p.Height,
		&p.HeightCategory,
		&p.Width,
		&p.Temperature,
		&p.Humidity,
		&p.Care,
		&p.CommonIssues,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.Zones = []Zone{}
	p.BloomSeasons = []BloomSeason{}
	return &p, nil
}

// AllPlants loads every plant and joins relations with one query per join
// table rather than one per plant.
func (s *SQLStore) AllPlants(ctx context.Context) ([]*Plant, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+plantColumns+` FROM plants p ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query plants: %w", err)
	}
	defer rows.Close()

	plants := []*Plant{}
	byID := make(map[int64]*Plant)
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plants: %w", err)
	}

	if err := s.joinRelations(ctx, byID, ""); err != nil {
		return nil, err
	}
	return plants, nil
}

// GetPlant returns one plant with its relations, or ErrRecordNotFound.
func (s *SQLStore) GetPlant(ctx context.Context, id int64) (*Plant, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	row := s.DB.QueryRowContext(ctx, s.rebind(`SELECT `+plantColumns+` FROM plants p WHERE p.id = ?`), id)
	p, err := scanPlant(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("get plant %d: %w", id, err)
		}
	}

	if err := s.joinRelations(ctx, map[int64]*Plant{p.ID: p}, "WHERE j.plant_id = ?", id); err != nil {
		return nil, err
	}
	return p, nil
}

// joinRelations attaches zones and bloom seasons to the plants in byID.
// Duplicate join rows are collapsed here, so legacy data with repeated
// links still reads cleanly.
func (s *SQLStore) joinRelations(ctx context.Context, byID map[int64]*Plant, where string, args ...any) error {
	zoneRows, err := s.DB.QueryContext(ctx, s.rebind(`
		SELECT j.plant_id, z.id, z.zone
		FROM plant_zones j
		JOIN zones z ON z.id = j.zone_id
		`+where+`
		ORDER BY j.plant_id, j.id`), args...)
	if err != nil {
		return fmt.Errorf("query plant zones: %w", err)
	}
	defer zoneRows.Close()

	type link struct{ plant, other int64 }
	seen := make(map[link]bool)
	for zoneRows.Next() {
		var plantID int64
		var z Zone
		if err := zoneRows.Scan(&plantID, &z.ID, &z.Zone); err != nil {
			return fmt.Errorf("scan plant zone: %w", err)
		}
		p, ok := byID[plantID]
		if !ok || seen[link{plantID, z.ID}] {
			continue
		}
		seen[link{plantID, z.ID}] = true
		p.Zones = append(p.Zones, z)
	}
	if err := zoneRows.Err(); err != nil {
		return fmt.Errorf("iterate plant zones: %w", err)
	}

	seasonRows, err := s.DB.QueryContext(ctx, s.rebind(`
		SELECT j.plant_id, b.id, b.season, b.description
		FROM plant_bloom_seasons j
		JOIN bloom_seasons b ON b.id = j.bloom_season_id
		`+where+`
		ORDER BY j.plant_id, j.id`), args...)
	if err != nil {
		return fmt.Errorf("query plant bloom seasons: %w", err)
	}
	defer seasonRows.Close()

	seen = make(map[link]bool)
	for seasonRows.Next() {
		var plantID int64
		var b BloomSeason
		if err := seasonRows.Scan(&plantID, &b.ID, &b.Season, &b.Description); err != nil {
			return fmt.Errorf("scan plant bloom season: %w", err)
		}
		p, ok := byID[plantID]
		if !ok || seen[link{plantID, b.ID}] {
			continue
		}
		seen[link{plantID, b.ID}] = true
		p.BloomSeasons = append(p.BloomSeasons, b)
	}
	if err := seasonRows.Err(); err != nil {
		return fmt.Errorf("iterate plant bloom seasons: %w", err)
	}
	return nil
}

// InsertPlant writes the plant row and its links in one transaction.
func (s *SQLStore) InsertPlant(ctx context.Context, plant *Plant) error {
	now := s.timestamp()

	return s.tx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`
			INSERT INTO plants (name, scientific_name, description, image_url, image_key,
				light_level, water_needs, bloom_time, height, height_category, width,
				temperature, humidity, care, common_issues, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`)

		err := tx.QueryRowContext(ctx, query,
			plant.Name,
			plant.ScientificName,
			plant.Description,
			plant.ImageURL,
			plant.ImageKey,
			string(plant.LightLevel),
			string(plant.WaterNeeds),
			plant.BloomTime,
			plant.Height,
			string(plant.HeightCategory),
			plant.Width,
			plant.Temperature,
			plant.Humidity,
			plant.Care,
			plant.CommonIssues,
			now,
			now,
		).Scan(&plant.ID)
		if err != nil {
			return fmt.Errorf("insert plant: %w", err)
		}
		plant.CreatedAt = now
		plant.UpdatedAt = now

		return s.linkRelations(ctx, tx, plant)
	})
}

// UpdatePlant replaces the plant row and its links in one transaction.
func (s *SQLStore) UpdatePlant(ctx context.Context, plant *Plant) error {
	now := s.timestamp()

	return s.tx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`
			UPDATE plants
			SET name = ?, scientific_name = ?, description = ?, image_url = ?, image_key = ?,
				light_level = ?, water_needs = ?, bloom_time = ?, height = ?, height_category = ?,
				width = ?, temperature = ?, humidity = ?, care = ?, common_issues = ?, updated_at = ?
			WHERE id = ?`)

		args := []any{
			plant.Name,
			plant.ScientificName,
			plant.Description,
			plant.ImageURL,
			plant.ImageKey,
			string(plant.LightLevel),
			string(plant.WaterNeeds),
			plant.BloomTime,
			plant.Height,
			string(plant.HeightCategory),
			plant.Width,
			plant.Temperature,
			plant.Humidity,
			plant.Care,
			plant.CommonIssues,
			now,
			plant.ID,
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update plant %d: %w", plant.ID, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrRecordNotFound
		}

		err = tx.QueryRowContext(ctx, s.rebind(`SELECT created_at FROM plants WHERE id = ?`), plant.ID).Scan(&plant.CreatedAt)
		if err != nil {
			return fmt.Errorf("reload plant %d: %w", plant.ID, err)
		}
		plant.CreatedAt = plant.CreatedAt.UTC()
		plant.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM plant_zones WHERE plant_id = ?`), plant.ID); err != nil {
			return fmt.Errorf("clear plant zones: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM plant_bloom_seasons WHERE plant_id = ?`), plant.ID); err != nil {
			return fmt.Errorf("clear plant bloom seasons: %w", err)
		}
		return s.linkRelations(ctx, tx, plant)
	})
}

// linkRelations upserts the plant's zone and season labels and inserts the
// join rows, replacing plant.Zones and plant.BloomSeasons with stored rows.
func (s *SQLStore) linkRelations(ctx context.Context, q querier, plant *Plant) error {
	zones := make([]Zone, 0, len(plant.Zones))
	for _, z := range plant.Zones {
		stored, err := s.upsertZone(ctx, q, z.Zone)
		if err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, s.rebind(`
			INSERT INTO plant_zones (plant_id, zone_id) VALUES (?, ?)
			ON CONFLICT (plant_id, zone_id) DO NOTHING`), plant.ID, stored.ID)
		if err != nil {
			return fmt.Errorf("link zone %q: %w", stored.Zone, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			zones = append(zones, *stored)
		}
	}
	plant.Zones = zones

	seasons := make([]BloomSeason, 0, len(plant.BloomSeasons))
	for _, b := range plant.BloomSeasons {
		stored, err := s.upsertBloomSeason(ctx, q, b.Season, "")
		if err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, s.rebind(`
			INSERT INTO plant_bloom_seasons (plant_id, bloom_season_id) VALUES (?, ?)
			ON CONFLICT (plant_id, bloom_season_id) DO NOTHING`), plant.ID, stored.ID)
		if err != nil {
			return fmt.Errorf("link bloom season %q: %w", stored.Season, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seasons = append(seasons, *stored)
		}
	}
	plant.BloomSeasons = seasons
	return nil
}

// DeletePlant removes a plant. Its join rows go with it via ON DELETE CASCADE.
func (s *SQLStore) DeletePlant(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	// Join rows go with the plant through ON DELETE CASCADE.
	result, err := s.DB.ExecContext(ctx, s.rebind(`DELETE FROM plants WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete plant %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetPlantImage records the stored image key or external URL for a plant.
func (s *SQLStore) SetPlantImage(ctx context.Context, id int64, key, url string) error {
	result, err := s.DB.ExecContext(ctx,
		s.rebind(`UPDATE plants SET image_key = ?, image_url = ?, updated_at = ? WHERE id = ?`),
		key, url, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("set plant %d image: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpsertZone returns the zone with the given label, creating it if needed.
func (s *SQLStore) UpsertZone(ctx context.Context, label string) (*Zone, error) {
	return s.upsertZone(ctx, s.DB, label)
}

// upsertZone relies on the unique zone label, so concurrent callers
// converge on one row instead of racing a lookup and an insert.
func (s *SQLStore) upsertZone(ctx context.Context, q querier, label string) (*Zone, error) {
	label = strings.ToLower(strings.TrimSpace(label))

	var z Zone
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO zones (zone) VALUES (?)
		ON CONFLICT (zone) DO UPDATE SET zone = excluded.zone
		RETURNING id, zone`), label).Scan(&z.ID, &z.Zone)
	if err != nil {
		return nil, fmt.Errorf("upsert zone %q: %w", label, err)
	}
	return &z, nil
}

// UpsertBloomSeason returns the named season, creating it if needed.
func (s *SQLStore) UpsertBloomSeason(ctx context.Context, season, description string) (*BloomSeason, error) {
	return s.upsertBloomSeason(ctx, s.DB, season, description)
}

// upsertBloomSeason keeps an existing description when description is empty.
func (s *SQLStore) upsertBloomSeason(ctx context.Context, q querier, season, description string) (*BloomSeason, error) {
	season = CanonicalSeason(season)

	var b BloomSeason
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO bloom_seasons (season, description) VALUES (?, ?)
		ON CONFLICT (season) DO UPDATE SET description =
			CASE WHEN excluded.description = '' THEN bloom_seasons.description ELSE excluded.description END
		RETURNING id, season, description`), season, description).Scan(&b.ID, &b.Season, &b.Description)
	if err != nil {
		return nil, fmt.Errorf("upsert bloom season %q: %w", season, err)
	}
	return &b, nil
}

// Zones lists every zone in creation order.
func (s *SQLStore) Zones(ctx context.Context) ([]*Zone, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, zone FROM zones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	zones := []*Zone{}
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Zone); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, &z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zones: %w", err)
	}
	return zones, nil
}

// BloomSeasons lists every bloom season in creation order.
func (s *SQLStore) BloomSeasons(ctx context.Context) ([]*BloomSeason, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, season, description FROM bloom_seasons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query bloom seasons: %w", err)
	}
	defer rows.Close()

	seasons := []*BloomSeason{}
	for rows.Next() {
		var b BloomSeason
		if err := rows.Scan(&b.ID, &b.Season, &b.Description); err != nil {
			return nil, fmt.Errorf("scan bloom season: %w", err)
		}
		seasons = append(seasons, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bloom seasons: %w", err)
	}
	return seasons, nil
}
