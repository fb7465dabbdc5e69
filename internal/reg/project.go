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
)

// Projects a plane into a new coordinate system with the given transformation,
// sampling the source through the inverse of trans with bilinear interpolation.
// Fills in missing pixels with the given out of bounds value.
func Project(data []float32, width int32, destNaxisn []int32, trans Transform3, outOfBounds float32) (res []float32, err error) {
	// Invert transformation so we can sample from the target coordinate system PoV
	invTrans, err:=trans.Invert()
	if err!=nil { return nil, err }

	destWidth, destHeight:=destNaxisn[0], destNaxisn[1]
	res=make([]float32, int(destWidth)*int(destHeight))

	// Resample plane from the target coordinate system PoV
	origWidth:=width
	origHeight:=int32(len(data))/width

	for row:=int32(0); row<destHeight; row++ {
		for col:=int32(0); col<destWidth; col++ {
			pt:=Point2D{float32(col), float32(row)}
			proj:=invTrans.Apply(pt)

			// perform bilinear interpolation
			xl, yl:=int32(math.Floor(float64(proj.X))), int32(math.Floor(float64(proj.Y)))
			xh, yh:=xl+1,               yl+1
			xr, yr:=proj.X-float32(xl), proj.Y-float32(yl)

			if xl<0 || xh>=origWidth || yl<0 || yh>=origHeight {
				res[col + row*destWidth]=outOfBounds
				continue
			}

			xlyl:=xl+yl*origWidth
			xhyl:=xlyl+1         // xh+yl*origWidth
			xlyh:=xlyl+origWidth // xl+yh*origWidth
			xhyh:=xhyl+origWidth // xh+yh*origWidth

			vyl  :=data[xlyl]*(1-xr) + data[xhyl]*xr
			vyh  :=data[xlyh]*(1-xr) + data[xhyh]*xr
			v    :=vyl     *(1-yr) + vyh     *yr

			res[col + row*destWidth]=v
		}
	}
	return res, nil
}
