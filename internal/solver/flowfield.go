// Package solver computes traversable routes across a heightmap by
// propagating an energy cost field outward from the goal and walking
// the resulting back-pointers from the start.
package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/terramesh/api/internal/terrain"
)

// Location is a grid coordinate on a heightmap.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// unsetBackPointer marks cells the cost sweep never reached.
var unsetBackPointer = Location{X: -1, Y: -1}

// eight-connected neighborhood, diagonals included.
var directions = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// FlowFieldSolver finds a minimum-energy route between two locations on
// a heightmap. The cost field is recomputed on every Solve call; the
// solver holds no cross-call cache. The heightmap is never mutated.
type FlowFieldSolver struct {
	heightmap *terrain.Heightmap
	smallMap  *terrain.Heightmap

	start *Location
	end   *Location
}

// NewFlowFieldSolver wraps a heightmap. A block-averaged overview map is
// derived when the map is large enough for one; small maps simply go
// without.
func NewFlowFieldSolver(hm *terrain.Heightmap) *FlowFieldSolver {
	small, err := hm.Submap()
	if err != nil {
		log.Debug("No overview map for solver", "error", err)
		small = nil
	}
	return &FlowFieldSolver{heightmap: hm, smallMap: small}
}

// SmallMap returns the derived overview map, nil when none could be built.
func (s *FlowFieldSolver) SmallMap() *terrain.Heightmap { return s.smallMap }

func (s *FlowFieldSolver) StartLocation() *Location { return s.start }
func (s *FlowFieldSolver) EndLocation() *Location   { return s.end }

// SetStartLocation validates and pins the route origin.
func (s *FlowFieldSolver) SetStartLocation(x, y int) error {
	if err := s.heightmap.ValidateLocation(x, y); err != nil {
		return fmt.Errorf("start location: %w", err)
	}
	s.start = &Location{X: x, Y: y}
	return nil
}

// SetEndLocation validates and pins the route goal.
func (s *FlowFieldSolver) SetEndLocation(x, y int) error {
	if err := s.heightmap.ValidateLocation(x, y); err != nil {
		return fmt.Errorf("end location: %w", err)
	}
	s.end = &Location{X: x, Y: y}
	return nil
}

// EnergyCost is the directional traversal cost between two adjacent
// cells. Climbing costs more than the rise; descending can pay back
// energy, floored at -1 per step; flat movement costs one unit.
func EnergyCost(fromH, toH float64) float64 {
	delta := toH - fromH
	switch {
	case delta > 0:
		return delta*2 + 1
	case delta < 0:
		return math.Max(-1, delta)
	default:
		return 1
	}
}

// Solve propagates the cost field from the goal and extracts the route
// from the start. It returns nil when either location is unset or the
// start cannot reach the goal; absence of a path is a normal outcome,
// not an error.
func (s *FlowFieldSolver) Solve() []Location {
	path, _ := s.Route()
	return path
}

// Route solves like Solve and additionally reports the total energy of
// the route, the propagated cost at the start cell. The energy is +Inf
// when no path exists.
func (s *FlowFieldSolver) Route() ([]Location, float64) {
	if s.start == nil || s.end == nil {
		log.Debug("Solve called without both locations set", "start", s.start, "end", s.end)
		return nil, math.Inf(1)
	}

	begin := time.Now()
	cameFrom, cost := s.generateFlowField()
	path := s.extractPath(cameFrom)
	log.Debug("Flow field solve completed", "duration", time.Since(begin), "found", path != nil)
	if path == nil {
		return nil, math.Inf(1)
	}
	return path, cost[s.start.Y][s.start.X]
}

// generateFlowField relaxes costs outward from the goal over the
// 8-connected grid with a FIFO queue. A cell re-enters the queue every
// time its cost improves; the asymmetric energy costs mean edges can be
// negative, which plain Dijkstra would not tolerate.
func (s *FlowFieldSolver) generateFlowField() ([][]Location, [][]float64) {
	w, h := s.heightmap.Width(), s.heightmap.Height()
	data := s.heightmap.Data()

	cost := make([][]float64, h)
	cameFrom := make([][]Location, h)
	for y := 0; y < h; y++ {
		cost[y] = make([]float64, w)
		cameFrom[y] = make([]Location, w)
		for x := 0; x < w; x++ {
			cost[y][x] = math.Inf(1)
			cameFrom[y][x] = unsetBackPointer
		}
	}

	goal := *s.end
	cost[goal.Y][goal.X] = 0
	queue := []Location{goal}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curCost := cost[cur.Y][cur.X]
		for _, d := range directions {
			nx, ny := cur.X+d[0], cur.Y+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			newCost := curCost + EnergyCost(data[cur.Y][cur.X], data[ny][nx])
			if newCost < cost[ny][nx] {
				cost[ny][nx] = newCost
				cameFrom[ny][nx] = cur
				queue = append(queue, Location{X: nx, Y: ny})
			}
		}
	}
	return cameFrom, cost
}

// extractPath follows the back-pointers from the start until the goal,
// returning nil if it hits a cell the sweep never reached.
func (s *FlowFieldSolver) extractPath(cameFrom [][]Location) []Location {
	goal := *s.end
	cur := *s.start

	var path []Location
	for cur != goal {
		path = append(path, cur)
		next := cameFrom[cur.Y][cur.X]
		if next == unsetBackPointer {
			return nil
		}
		cur = next
	}
	path = append(path, goal)
	return path
}
