// Copyright (C) 2023 Martin Voggel
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package reg

import (
	"errors"
	"fmt"
	"math"
)

// A 2-dimensional point with floating point coordinates.
type Point2D struct {
	X float32
	Y float32
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// Returns the euclidian distance between the two given points
func Dist2D(a, b Point2D) float32 {
	dx, dy:=a.X-b.X, a.Y-b.Y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// A 2D projective coordinate transformation (homography). Represents the
// 3x3 matrix [[A,B,C],[D,E,F],[G,H,1]] with the bottom-right entry fixed at 1.
// G=H=0 degenerates to an affine transform, A=E=1 and the rest zero to identity.
type Transform3 struct {
	A float32
	B float32
	C float32
	D float32
	E float32
	F float32
	G float32
	H float32
}

func IdentityTransform3() Transform3 {
	return Transform3{1,0,0, 0,1,0, 0,0}
}

func (t Transform3) String() string {
	return fmt.Sprintf("x'=(%.5gx %+.5gy %+.3g)/w, y'=(%.5gx %+.5gy %+.3g)/w, w=%.5gx %+.5gy +1",
		t.A, t.B, t.C, t.D, t.E, t.F, t.G, t.H)
}

// Apply given projective transformation to the given coordinates
func (t *Transform3) Apply(p Point2D) (pP Point2D) {
	w:=t.G*p.X + t.H*p.Y + 1
	xP:=(t.A*p.X + t.B*p.Y + t.C)/w
	yP:=(t.D*p.X + t.E*p.Y + t.F)/w
	return Point2D{xP, yP}
}

// Returns true if the transformation is an identity within the given tolerance
func (t *Transform3) IsIdentity(tolerance float32) bool {
	i:=IdentityTransform3()
	ds:=[]float32{t.A-i.A, t.B-i.B, t.C-i.C, t.D-i.D, t.E-i.E, t.F-i.F, t.G-i.G, t.H-i.H}
	for _,d:=range(ds) {
		if d>tolerance || -d>tolerance { return false }
	}
	return true
}

// Matrix product of two transformations. The result applies u first, then t.
func (t Transform3) Mul(u Transform3) (Transform3, error) {
	m:=[3][3]float64{ {float64(t.A),float64(t.B),float64(t.C)},
	                  {float64(t.D),float64(t.E),float64(t.F)},
	                  {float64(t.G),float64(t.H),1} }
	n:=[3][3]float64{ {float64(u.A),float64(u.B),float64(u.C)},
	                  {float64(u.D),float64(u.E),float64(u.F)},
	                  {float64(u.G),float64(u.H),1} }
	var p [3][3]float64
	for i:=0; i<3; i++ {
		for j:=0; j<3; j++ {
			for k:=0; k<3; k++ {
				p[i][j]+=m[i][k]*n[k][j]
			}
		}
	}
	return normalize3(p)
}

// Invert a given projective transformation via the adjugate matrix.
// Returns an error if the matrix is numerically singular.
func (t *Transform3) Invert() (inv Transform3, err error) {
	a,b,c:=float64(t.A), float64(t.B), float64(t.C)
	d,e,f:=float64(t.D), float64(t.E), float64(t.F)
	g,h  :=float64(t.G), float64(t.H)

	det:=a*(e-f*h) - b*(d-f*g) + c*(d*h-e*g)
	if det<1e-12 && -det<1e-12 {
		return Transform3{}, fmt.Errorf("matrix has no inverse, determinant=%g", det)
	}

	// adjugate of [[a,b,c],[d,e,f],[g,h,1]]
	adj:=[3][3]float64{
		{ e  -f*h,  c*h-b,    b*f-c*e },
		{ f*g-d,    a  -c*g,  c*d-a*f },
		{ d*h-e*g,  b*g-a*h,  a*e-b*d },
	}
	return normalize3(adj)
}

// Scales a 3x3 matrix so its bottom-right entry is 1 and packs it into a Transform3
func normalize3(m [3][3]float64) (Transform3, error) {
	w:=m[2][2]
	if w<1e-12 && -w<1e-12 {
		return Transform3{}, errors.New("degenerate transform, vanishing projective scale")
	}
	s:=1/w
	return Transform3{
		A: float32(m[0][0]*s), B: float32(m[0][1]*s), C: float32(m[0][2]*s),
		D: float32(m[1][0]*s), E: float32(m[1][1]*s), F: float32(m[1][2]*s),
		G: float32(m[2][0]*s), H: float32(m[2][1]*s),
	}, nil
}

// Builds a pure translation transform
func NewTranslation(dx, dy float32) Transform3 {
	return Transform3{1,0,dx, 0,1,dy, 0,0}
}

// Builds a rotation/scale/shear transform about the given center point.
// Angle is in radians, scale multiplies both axes, shear skews x with y.
func NewSimilarityAbout(angle, scale, shear, cx, cy float32) Transform3 {
	sin:=float32(math.Sin(float64(angle)))
	cos:=float32(math.Cos(float64(angle)))
	a:=scale*cos
	b:=scale*(shear*cos - sin)
	d:=scale*sin
	e:=scale*(shear*sin + cos)
	// conjugate with translations so the center point stays fixed
	return Transform3{
		A: a, B: b, C: cx - a*cx - b*cy,
		D: d, E: e, F: cy - d*cx - e*cy,
		G: 0, H: 0,
	}
}
