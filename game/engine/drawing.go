package engine

import "github.com/google/uuid"

// DrawingBoard segments the pen trail into continuous paths
type DrawingBoard struct {
	active    *DrawingPath
	completed []DrawingPath
}

// Track records the robot position for one tick under the given pen state.
// A lifted pen archives the active path; a color change starts a new one.
func (b *DrawingBoard) Track(x, y, z float64, pen PenState) {
	if !pen.Down {
		b.Lift()
		return
	}

	point := [3]float64{x, y + PenLift, z}
	if b.active == nil || b.active.Color != pen.Color {
		b.Lift()
		b.active = &DrawingPath{
			ID:     uuid.NewString(),
			Points: [][3]float64{point},
			Color:  pen.Color,
		}
		return
	}

	last := b.active.Points[len(b.active.Points)-1]
	dx := point[0] - last[0]
	dz := point[2] - last[2]
	if dx*dx+dz*dz > PenDebounceDist2 {
		b.active.Points = append(b.active.Points, point)
	}
}

// Lift archives the active path, if any
func (b *DrawingBoard) Lift() {
	if b.active == nil {
		return
	}
	b.completed = append(b.completed, *b.active)
	b.active = nil
}

// Clear drops every path
func (b *DrawingBoard) Clear() {
	b.active = nil
	b.completed = nil
}

// Completed returns a copy of the archived paths in drawing order
func (b *DrawingBoard) Completed() []DrawingPath {
	out := make([]DrawingPath, len(b.completed))
	for i, p := range b.completed {
		out[i] = copyPath(p)
	}
	return out
}

// Active returns a copy of the path being drawn, or nil
func (b *DrawingBoard) Active() *DrawingPath {
	if b.active == nil {
		return nil
	}
	p := copyPath(*b.active)
	return &p
}

func copyPath(p DrawingPath) DrawingPath {
	pts := make([][3]float64, len(p.Points))
	copy(pts, p.Points)
	return DrawingPath{ID: p.ID, Points: pts, Color: p.Color}
}
