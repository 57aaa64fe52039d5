// Package store records generation and solve history in sqlite. Terrain
// grids themselves are never written to disk; only metadata about them is.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// MapRecord is the stored metadata of one generated heightmap.
type MapRecord struct {
	ID           int64     `json:"id"`
	Algorithm    string    `json:"algorithm"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Roughness    float64   `json:"roughness"`
	BlockSize    int       `json:"block_size"`
	GenerationMS int64     `json:"generation_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// RouteRecord is the stored outcome of one solve request.
type RouteRecord struct {
	ID          int64     `json:"id"`
	MapID       int64     `json:"map_id"`
	StartX      int       `json:"start_x"`
	StartY      int       `json:"start_y"`
	EndX        int       `json:"end_x"`
	EndY        int       `json:"end_y"`
	Found       bool      `json:"found"`
	PathLength  int       `json:"path_length"`
	TotalEnergy *float64  `json:"total_energy,omitempty"`
	SolveMS     int64     `json:"solve_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateMapParams struct {
	Algorithm    string
	Width        int
	Height       int
	Roughness    float64
	BlockSize    int
	GenerationMS int64
}

type CreateRouteParams struct {
	MapID       int64
	StartX      int
	StartY      int
	EndX        int
	EndY        int
	Found       bool
	PathLength  int
	TotalEnergy *float64
	SolveMS     int64
}

// CreateMap inserts a map metadata row and returns its id.
func (s *Store) CreateMap(ctx context.Context, arg CreateMapParams) (int64, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO maps (algorithm, width, height, roughness, block_size, generation_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Algorithm, arg.Width, arg.Height, arg.Roughness, arg.BlockSize, arg.GenerationMS,
	)
	s.logQuery("CreateMap", start, err, "algorithm", arg.Algorithm, "width", arg.Width, "height", arg.Height)
	if err != nil {
		return 0, fmt.Errorf("inserting map record: %w", err)
	}
	return res.LastInsertId()
}

// GetMap fetches one map metadata row.
func (s *Store) GetMap(ctx context.Context, id int64) (MapRecord, error) {
	start := time.Now()
	var rec MapRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, algorithm, width, height, roughness, block_size, generation_ms, created_at
		 FROM maps WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Algorithm, &rec.Width, &rec.Height, &rec.Roughness, &rec.BlockSize, &rec.GenerationMS, &rec.CreatedAt)
	s.logQuery("GetMap", start, err, "map_id", id)
	if errors.Is(err, sql.ErrNoRows) {
		return MapRecord{}, ErrNotFound
	}
	if err != nil {
		return MapRecord{}, fmt.Errorf("fetching map record: %w", err)
	}
	return rec, nil
}

// CreateRoute inserts a solve history row and returns its id.
func (s *Store) CreateRoute(ctx context.Context, arg CreateRouteParams) (int64, error) {
	start := time.Now()
	var energy sql.NullFloat64
	if arg.TotalEnergy != nil {
		energy = sql.NullFloat64{Float64: *arg.TotalEnergy, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO routes (map_id, start_x, start_y, end_x, end_y, found, path_length, total_energy, solve_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.MapID, arg.StartX, arg.StartY, arg.EndX, arg.EndY, arg.Found, arg.PathLength, energy, arg.SolveMS,
	)
	s.logQuery("CreateRoute", start, err, "map_id", arg.MapID, "found", arg.Found)
	if err != nil {
		return 0, fmt.Errorf("inserting route record: %w", err)
	}
	return res.LastInsertId()
}

// ListRoutes returns the solve history for a map, newest first.
func (s *Store) ListRoutes(ctx context.Context, mapID int64) ([]RouteRecord, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, map_id, start_x, start_y, end_x, end_y, found, path_length, total_energy, solve_ms, created_at
		 FROM routes WHERE map_id = ? ORDER BY created_at DESC, id DESC`, mapID,
	)
	s.logQuery("ListRoutes", start, err, "map_id", mapID)
	if err != nil {
		return nil, fmt.Errorf("listing route records: %w", err)
	}
	defer rows.Close()

	routes := []RouteRecord{}
	for rows.Next() {
		var rec RouteRecord
		var energy sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.MapID, &rec.StartX, &rec.StartY, &rec.EndX, &rec.EndY,
			&rec.Found, &rec.PathLength, &energy, &rec.SolveMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning route record: %w", err)
		}
		if energy.Valid {
			rec.TotalEnergy = &energy.Float64
		}
		routes = append(routes, rec)
	}
	return routes, rows.Err()
}

func (s *Store) logQuery(queryName string, start time.Time, err error, keyvals ...interface{}) {
	duration := time.Since(start)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Debug("Database query failed", append([]interface{}{"query", queryName, "duration", duration, "error", err}, keyvals...)...)
		return
	}
	log.Debug("Database query executed", append([]interface{}{"query", queryName, "duration", duration}, keyvals...)...)
}
