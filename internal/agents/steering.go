package agents

import (
	"math"

	"github.com/talgya/evacsim/internal/world"
)

// Steering constants.
const (
	LookaheadRadius = 3               // Hazard scan radius ahead of a step
	StepDistance    = 1.0             // Distance covered by one step
	DeflectAngle    = 3 * math.Pi / 4 // Rotation applied to the obstruction bearing
)

// HazardSensor lists hazard markers near a cell.
type HazardSensor interface {
	HazardsWithin(center world.Cell, radius int) []world.Cell
}

// sectorRule says which marker in the forward half-plane counts as the
// obstruction for a heading sector: the one furthest to the right of travel
// (primary axis), then furthest along travel (secondary axis).
type sectorRule struct {
	primaryIsX   bool
	maxPrimary   bool
	maxSecondary bool
}

// sectorRules is indexed by heading sector, 45° each, counter-clockwise
// from +X.
var sectorRules = [8]sectorRule{
	{primaryIsX: false, maxPrimary: false, maxSecondary: true}, // 0°–45°: heading +X
	{primaryIsX: true, maxPrimary: true, maxSecondary: true},   // 45°–90°: heading +Y
	{primaryIsX: true, maxPrimary: true, maxSecondary: true},   // 90°–135°
	{primaryIsX: false, maxPrimary: true, maxSecondary: false}, // 135°–180°: heading −X
	{primaryIsX: false, maxPrimary: true, maxSecondary: false}, // 180°–225°
	{primaryIsX: true, maxPrimary: false, maxSecondary: false}, // 225°–270°: heading −Y
	{primaryIsX: true, maxPrimary: false, maxSecondary: false}, // 270°–315°
	{primaryIsX: false, maxPrimary: false, maxSecondary: true}, // 315°–360°
}

func sectorOf(heading float64) int {
	s := int(world.NormalizeAngle(heading) / (math.Pi / 4))
	if s > 7 {
		s = 7
	}
	return s
}

// Obstruction picks the hazard marker that blocks travel from from along
// heading. Only markers in the forward half-plane (within ±90° of heading)
// qualify.
func Obstruction(from world.Cell, heading float64, hazards []world.Cell) (world.Cell, bool) {
	rule := sectorRules[sectorOf(heading)]
	origin := from.Center()

	var best world.Cell
	found := false
	for _, h := range hazards {
		bearing := world.Angle(origin, h.Center())
		if angleBetween(bearing, heading) > math.Pi/2 {
			continue
		}
		if !found || rule.better(h, best) {
			best, found = h, true
		}
	}
	return best, found
}

func (r sectorRule) better(c, best world.Cell) bool {
	cp, cs := c.Y, c.X
	bp, bs := best.Y, best.X
	if r.primaryIsX {
		cp, cs, bp, bs = c.X, c.Y, best.X, best.Y
	}
	if cp != bp {
		return (cp > bp) == r.maxPrimary
	}
	if cs != bs {
		return (cs > bs) == r.maxSecondary
	}
	return false
}

// angleBetween returns the absolute angular difference in [0, π].
func angleBetween(a, b float64) float64 {
	d := math.Abs(world.NormalizeAngle(a) - world.NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Heading converts a destination into the direction of the next step,
// switching m between goal-seek and avoidance as obstructions appear and
// clear. While avoiding, the bearing to the obstruction is rotated by 135°
// away from it. Returns false when target is m's own cell: no step is due.
// The returned heading is always finite and in [0, 2π).
func Heading(m *Mobile, target world.Cell, sensor HazardSensor) (float64, bool) {
	if target == m.Cell {
		return 0, false
	}
	theta := world.Angle(m.Pos, target.Center())

	var hazards []world.Cell
	if sensor != nil {
		hazards = sensor.HazardsWithin(m.Cell, LookaheadRadius)
	}
	obstacle, blocked := Obstruction(m.Cell, theta, hazards)

	if m.GoalSeek && blocked {
		m.GoalSeek = false
	}
	if !m.GoalSeek {
		if !blocked {
			m.GoalSeek = true
		} else {
			theta = deflect(world.Angle(m.Pos, obstacle.Center()))
		}
	}
	return world.NormalizeAngle(theta), true
}

// deflect turns away from an obstruction bearing: bearings in the upper
// half-plane rotate counter-clockwise, the rest clockwise.
func deflect(bearing float64) float64 {
	bearing = world.NormalizeAngle(bearing)
	if bearing <= math.Pi {
		return world.NormalizeAngle(bearing + DeflectAngle)
	}
	return world.NormalizeAngle(bearing - DeflectAngle)
}

// Advance moves m one step along heading on g and re-snaps its cell.
func Advance(m *Mobile, g world.Grid, heading float64) {
	m.Pos = g.Step(m.Pos, StepDistance, heading)
	m.Cell = m.Pos.Cell()
}

// MoveTowards steers m one step toward target. Returns false when no step
// was taken because m already occupies target.
func MoveTowards(m *Mobile, g world.Grid, target world.Cell, sensor HazardSensor) bool {
	heading, ok := Heading(m, target, sensor)
	if !ok {
		return false
	}
	Advance(m, g, heading)
	return true
}
