package mathx

import "fmt"

// Vec3i is a global or relative tile coordinate. Z is the vertical axis.
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i { return Vec3i{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Manhattan returns |dx|+|dy|+|dz| between v and o.
func (v Vec3i) Manhattan(o Vec3i) int {
	return AbsInt(v.X-o.X) + AbsInt(v.Y-o.Y) + AbsInt(v.Z-o.Z)
}

// Dist2 is the squared euclidean length of v.
func (v Vec3i) Dist2() int {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Less orders coordinates by z, then y, then x.
func (v Vec3i) Less(o Vec3i) bool {
	if v.Z != o.Z {
		return v.Z < o.Z
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.X < o.X
}

// Neighbors6 is the fixed face-neighbor order used by pathfinding and movement.
var Neighbors6 = [6]Vec3i{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}
