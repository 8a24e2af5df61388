package math

// Rect2 is an axis-aligned rectangle with its origin at the top-left corner.
type Rect2 struct {
	Position Vec2
	Size     Vec2
}

// Rect2i is an integer axis-aligned rectangle, used for atlas regions.
type Rect2i struct {
	Position Vec2i
	Size     Vec2i
}

// End returns the bottom-right corner.
func (r Rect2) End() Vec2 {
	return r.Position.Add(r.Size)
}

// Intersects reports whether r and other overlap with a positive area.
// Touching edges do not count.
func (r Rect2) Intersects(other Rect2) bool {
	a, b := r.End(), other.End()
	return r.Position.X < b.X && other.Position.X < a.X &&
		r.Position.Y < b.Y && other.Position.Y < a.Y
}
