// Package playground orchestrates the terrain engine and the flow-field
// solver behind the HTTP API: it keeps generated heightmaps in an
// in-memory registry, records their metadata and solve history in the
// store, and evicts idle maps. Grids live only in memory; a restart
// keeps the history but not the terrain.
package playground

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/terramesh/api/internal/config"
	"github.com/terramesh/api/internal/solver"
	"github.com/terramesh/api/internal/store"
	"github.com/terramesh/api/internal/terrain"
)

// ErrMapNotFound is returned when a map id is unknown or its grid has
// been evicted from the registry.
var ErrMapNotFound = errors.New("map not found")

// ErrInvalidParams wraps request parameters the manager rejected, so
// the API layer can tell caller mistakes from internal failures.
var ErrInvalidParams = errors.New("invalid parameters")

type Manager struct {
	cfg   config.TerrainConfig
	store *store.Store

	mu   sync.Mutex
	maps map[int64]*mapEntry
}

type mapEntry struct {
	heightmap  *terrain.Heightmap
	record     store.MapRecord
	lastAccess time.Time
}

func NewManager(cfg config.TerrainConfig, st *store.Store) *Manager {
	log.Debug("Creating playground manager",
		"default_algorithm", cfg.DefaultAlgorithm,
		"default_width", cfg.DefaultWidth,
		"default_height", cfg.DefaultHeight)
	return &Manager{
		cfg:   cfg,
		store: st,
		maps:  make(map[int64]*mapEntry),
	}
}

// GenerateParams are the user-adjustable knobs of a map request. Zero
// values fall back to the configured defaults.
type GenerateParams struct {
	Algorithm string
	Width     int
	Height    int
	Roughness float64
	BlockSize int
}

func (m *Manager) applyDefaults(p GenerateParams) GenerateParams {
	if p.Algorithm == "" {
		p.Algorithm = m.cfg.DefaultAlgorithm
	}
	if p.Width == 0 {
		p.Width = m.cfg.DefaultWidth
	}
	if p.Height == 0 {
		p.Height = m.cfg.DefaultHeight
	}
	if p.Roughness == 0 {
		p.Roughness = m.cfg.DefaultRoughness
	}
	if p.BlockSize == 0 {
		p.BlockSize = m.cfg.DefaultBlockSize
	}
	return p
}

// GenerateMap synthesizes a new terrain, registers it and records its
// metadata.
func (m *Manager) GenerateMap(ctx context.Context, params GenerateParams) (store.MapRecord, error) {
	p := m.applyDefaults(params)
	if p.Width < 2 || p.Height < 2 {
		return store.MapRecord{}, fmt.Errorf("%w: map dimensions %dx%d are too small", ErrInvalidParams, p.Width, p.Height)
	}
	if p.Roughness < 0 || p.Roughness > 1 {
		return store.MapRecord{}, fmt.Errorf("%w: roughness %v must be within [0, 1]", ErrInvalidParams, p.Roughness)
	}

	gen, err := terrain.NewNamed(p.Algorithm, p.Width, p.Height, terrain.WithRoughness(p.Roughness))
	if err != nil {
		return store.MapRecord{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	log.Info("Generating terrain", "algorithm", p.Algorithm, "width", p.Width, "height", p.Height, "roughness", p.Roughness)
	start := time.Now()
	hm, err := gen.Generate()
	if err != nil {
		return store.MapRecord{}, fmt.Errorf("generating terrain: %w", err)
	}
	duration := time.Since(start)
	log.Info("Terrain generated", "algorithm", p.Algorithm, "duration", duration)

	if err := hm.SetBlockSize(p.BlockSize); err != nil {
		return store.MapRecord{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	id, err := m.store.CreateMap(ctx, store.CreateMapParams{
		Algorithm:    p.Algorithm,
		Width:        p.Width,
		Height:       p.Height,
		Roughness:    p.Roughness,
		BlockSize:    p.BlockSize,
		GenerationMS: duration.Milliseconds(),
	})
	if err != nil {
		return store.MapRecord{}, err
	}

	record, err := m.store.GetMap(ctx, id)
	if err != nil {
		return store.MapRecord{}, err
	}

	m.mu.Lock()
	m.maps[id] = &mapEntry{heightmap: hm, record: record, lastAccess: time.Now()}
	m.mu.Unlock()

	return record, nil
}

// GetMap returns the live heightmap and metadata for a registered map.
func (m *Manager) GetMap(id int64) (*terrain.Heightmap, store.MapRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.maps[id]
	if !ok {
		return nil, store.MapRecord{}, ErrMapNotFound
	}
	entry.lastAccess = time.Now()
	return entry.heightmap, entry.record, nil
}

// SmallMap returns the block-averaged overview of a registered map,
// deriving it with the map's configured block size on first use.
func (m *Manager) SmallMap(id int64) (*terrain.Heightmap, error) {
	hm, record, err := m.GetMap(id)
	if err != nil {
		return nil, err
	}
	small, err := hm.CreateSubmap(record.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("downsampling map %d: %w", id, err)
	}
	return small, nil
}

// RouteResult is the outcome of one solve request.
type RouteResult struct {
	Record store.RouteRecord `json:"record"`
	Path   []solver.Location `json:"path,omitempty"`
}

// SolveRoute runs the flow-field solver between two locations on a
// registered map and records the outcome. Invalid coordinates are
// errors; an unreachable goal is a normal found=false result.
func (m *Manager) SolveRoute(ctx context.Context, id int64, start, end solver.Location) (RouteResult, error) {
	hm, _, err := m.GetMap(id)
	if err != nil {
		return RouteResult{}, err
	}

	s := solver.NewFlowFieldSolver(hm)
	if err := s.SetStartLocation(start.X, start.Y); err != nil {
		return RouteResult{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := s.SetEndLocation(end.X, end.Y); err != nil {
		return RouteResult{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	begin := time.Now()
	path, energy := s.Route()
	duration := time.Since(begin)
	found := path != nil
	log.Info("Route solved", "map_id", id, "found", found, "path_length", len(path), "duration", duration)

	var totalEnergy *float64
	if found && !math.IsInf(energy, 1) {
		totalEnergy = &energy
	}
	routeID, err := m.store.CreateRoute(ctx, store.CreateRouteParams{
		MapID:       id,
		StartX:      start.X,
		StartY:      start.Y,
		EndX:        end.X,
		EndY:        end.Y,
		Found:       found,
		PathLength:  len(path),
		TotalEnergy: totalEnergy,
		SolveMS:     duration.Milliseconds(),
	})
	if err != nil {
		return RouteResult{}, err
	}

	record := store.RouteRecord{
		ID:          routeID,
		MapID:       id,
		StartX:      start.X,
		StartY:      start.Y,
		EndX:        end.X,
		EndY:        end.Y,
		Found:       found,
		PathLength:  len(path),
		TotalEnergy: totalEnergy,
		SolveMS:     duration.Milliseconds(),
	}
	return RouteResult{Record: record, Path: path}, nil
}

// ListRoutes returns the recorded solve history of a map. The history
// survives eviction of the grid itself.
func (m *Manager) ListRoutes(ctx context.Context, id int64) ([]store.RouteRecord, error) {
	return m.store.ListRoutes(ctx, id)
}

// EvictExpired drops registry entries idle for longer than the TTL and
// reports how many were removed. A TTL of zero disables eviction.
func (m *Manager) EvictExpired() int {
	if m.cfg.MapTTL <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-m.cfg.MapTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, entry := range m.maps {
		if entry.lastAccess.Before(cutoff) {
			delete(m.maps, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Info("Evicted idle maps", "count", evicted, "ttl", m.cfg.MapTTL)
	}
	return evicted
}
