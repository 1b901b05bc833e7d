package fusion

// Vector is a three component float32 vector.
type Vector [3]float32

// Dot returns the dot product of v and u.
func (v Vector) Dot(u Vector) float32 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Cross returns v × u.
func (v Vector) Cross(u Vector) Vector {
	return Vector{
		v[1]*u[2] - v[2]*u[1],
		v[2]*u[0] - v[0]*u[2],
		v[0]*u[1] - v[1]*u[0],
	}
}

// Scale returns v multiplied by s.
func (v Vector) Scale(s float32) Vector {
	return Vector{v[0] * s, v[1] * s, v[2] * s}
}

// Add returns v + u.
func (v Vector) Add(u Vector) Vector {
	return Vector{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Matrix is a 3x3 row-major matrix.
type Matrix [3][3]float32

// Identity is the identity matrix.
var Identity = Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Row returns row n as a vector.
func (m *Matrix) Row(n int) Vector {
	return Vector(m[n])
}
