package geom

import "math"

// SnapThreshold is the maximum distance, in world units, at which a dragged
// box snaps to another box's edge or center.
const SnapThreshold = 8.0

// Axis identifies the orientation of a guide line.
type Axis string

const (
	// AxisX guides are vertical lines at a fixed x.
	AxisX Axis = "x"
	// AxisY guides are horizontal lines at a fixed y.
	AxisY Axis = "y"
)

// Guide is an alignment line drawn while dragging.
type Guide struct {
	Axis  Axis    `json:"axis"`
	Pos   float64 `json:"pos"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Target is a stationary box that dragged boxes may align with.
type Target struct {
	ID  string
	Box Rect
}

// SnapResult is the outcome of ComputeSnap.
type SnapResult struct {
	Delta  Point   `json:"delta"`
	Guides []Guide `json:"guides"`
}

type match struct {
	delta  float64
	pos    float64
	target Rect
}

// ComputeSnap compares the prospective dragged box with every target not in
// dragging and returns the per-axis offset to apply plus the guide lines to
// draw. Each axis snaps independently to the smallest delta under
// SnapThreshold; ties keep the first match in target order.
func ComputeSnap(box Rect, targets []Target, dragging map[string]bool) SnapResult {
	var (
		bestX, bestY   *match
		matchX, matchY []match
	)
	for _, t := range targets {
		if dragging[t.ID] {
			continue
		}
		for _, m := range axisMatches(
			[3]float64{box.X, box.CenterX(), box.Right()},
			[3]float64{t.Box.X, t.Box.CenterX(), t.Box.Right()}, t.Box) {
			matchX = append(matchX, m)
			if bestX == nil || math.Abs(m.delta) < math.Abs(bestX.delta) {
				mm := m
				bestX = &mm
			}
		}
		for _, m := range axisMatches(
			[3]float64{box.Y, box.CenterY(), box.Bottom()},
			[3]float64{t.Box.Y, t.Box.CenterY(), t.Box.Bottom()}, t.Box) {
			matchY = append(matchY, m)
			if bestY == nil || math.Abs(m.delta) < math.Abs(bestY.delta) {
				mm := m
				bestY = &mm
			}
		}
	}

	res := SnapResult{Guides: []Guide{}}
	if bestX != nil {
		res.Delta.X = bestX.delta
		snapped := box.Translate(Point{X: bestX.delta})
		for _, m := range matchX {
			if m.delta != bestX.delta {
				continue
			}
			res.Guides = append(res.Guides, Guide{
				Axis:  AxisX,
				Pos:   m.pos,
				Start: math.Min(snapped.Y, m.target.Y),
				End:   math.Max(snapped.Bottom(), m.target.Bottom()),
			})
		}
	}
	if bestY != nil {
		res.Delta.Y = bestY.delta
		snapped := box.Translate(Point{Y: bestY.delta})
		for _, m := range matchY {
			if m.delta != bestY.delta {
				continue
			}
			res.Guides = append(res.Guides, Guide{
				Axis:  AxisY,
				Pos:   m.pos,
				Start: math.Min(snapped.X, m.target.X),
				End:   math.Max(snapped.Right(), m.target.Right()),
			})
		}
	}
	return res
}

// axisMatches lists every (dragged line, target line) pair on one axis whose
// distance is under SnapThreshold.
func axisMatches(dragged, target [3]float64, box Rect) []match {
	var out []match
	for _, d := range dragged {
		for _, s := range target {
			delta := s - d
			if math.Abs(delta) < SnapThreshold {
				out = append(out, match{delta: delta, pos: s, target: box})
			}
		}
	}
	return out
}
