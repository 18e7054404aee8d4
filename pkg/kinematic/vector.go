package kinematic

// Vector is a 2D vector.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector3 is a world-space 3D vector. Y is up and Z is forward.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Displacement returns how far an object moving at constant velocity v travels in time.
func (v Vector3) Displacement(time float64) Vector3 {
	return Vector3{
		X: Displacement(v.X, time, 0),
		Y: Displacement(v.Y, time, 0),
		Z: Displacement(v.Z, time, 0),
	}
}
