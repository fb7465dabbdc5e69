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
	"math"
	"testing"
)

func TestTransform3Identity(t *testing.T) {
	id:=IdentityTransform3()
	if !id.IsIdentity(1e-8) { t.Errorf("identity not recognized as identity") }

	p:=Point2D{3.5, -2.25}
	if q:=id.Apply(p); q!=p { t.Errorf("identity moved %v to %v", p, q) }

	tr:=NewTranslation(1, 0)
	if tr.IsIdentity(1e-8) { t.Errorf("translation recognized as identity") }
	if !tr.IsIdentity(2) { t.Errorf("translation outside loose tolerance") }
}

func TestTransform3Translation(t *testing.T) {
	tr:=NewTranslation(2.5, -1.5)
	q:=tr.Apply(Point2D{1, 1})
	if q.X!=3.5 || q.Y!=-0.5 { t.Errorf("Apply=%v; want (3.50, -0.50)", q) }
}

func TestTransform3Mul(t *testing.T) {
	// result applies the right operand first
	u:=NewTranslation(1, 0)
	v:=NewSimilarityAbout(float32(math.Pi/2), 1, 0, 0, 0)
	tv, err:=v.Mul(u)
	if err!=nil { t.Fatalf("Mul: %s", err.Error()) }

	// translate (0,0) to (1,0), then rotate 90 degrees to (0,1)
	q:=tv.Apply(Point2D{0, 0})
	if Dist2D(q, Point2D{0, 1})>1e-5 { t.Errorf("Mul order wrong, (0,0) maps to %v; want (0.00, 1.00)", q) }
}

func TestTransform3Invert(t *testing.T) {
	tr:=Transform3{1.1, 0.05, 3, -0.04, 0.95, -2, 1e-4, -2e-4}
	inv, err:=tr.Invert()
	if err!=nil { t.Fatalf("Invert: %s", err.Error()) }

	pts:=[]Point2D{ {0,0}, {10,5}, {-3,7}, {100,100} }
	for _,p:=range(pts) {
		q:=inv.Apply(tr.Apply(p))
		if Dist2D(p, q)>1e-3 { t.Errorf("round trip moved %v to %v", p, q) }
	}
}

func TestTransform3InvertSingular(t *testing.T) {
	// rank-1 matrix has no inverse
	tr:=Transform3{0,0,0, 0,0,0, 0,0}
	if _, err:=tr.Invert(); err==nil { t.Errorf("Invert accepted singular matrix") }
}

func TestNewSimilarityAboutFixesCenter(t *testing.T) {
	cx, cy:=float32(12), float32(7)
	tr:=NewSimilarityAbout(0.3, 1.05, 0.02, cx, cy)

	q:=tr.Apply(Point2D{cx, cy})
	if Dist2D(q, Point2D{cx, cy})>1e-4 { t.Errorf("center moved to %v", q) }

	// a point one unit right of the center moves by roughly scale
	q=tr.Apply(Point2D{cx+1, cy})
	d:=Dist2D(q, Point2D{cx, cy})
	if d<0.9 || d>1.2 { t.Errorf("unit offset scaled to distance %f", d) }
}

func TestNewSimilarityAboutRotation(t *testing.T) {
	// pure 90 degree rotation about the origin maps (1,0) to (0,1)
	tr:=NewSimilarityAbout(float32(math.Pi/2), 1, 0, 0, 0)
	q:=tr.Apply(Point2D{1, 0})
	if Dist2D(q, Point2D{0, 1})>1e-5 { t.Errorf("(1,0) maps to %v; want (0.00, 1.00)", q) }
}
