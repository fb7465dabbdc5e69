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


package frame

import (
	"fmt"
)

// Demosaics a single-plane RGGB mosaic into a 3-channel RGB frame using
// bilinear interpolation. The mosaic must have even dimensions, which holds
// for every flattened packed frame.
func Demosaic(f *Frame) (*Frame, error) {
	if f.Channels()!=1 {
		return nil, fmt.Errorf("cannot demosaic %d channels, want a single mosaic plane", f.Channels())
	}
	if f.Width()%2!=0 || f.Height()%2!=0 {
		return nil, fmt.Errorf("cannot demosaic odd dimensions %v", f.Naxisn)
	}
	width, height:=f.Width(), f.Height()
	res:=NewFrameFromNaxisn([]int32{width, height, 3}, nil)
	res.ID=f.ID
	demosaicRed  (res.Chan(0), f.Data, width, height)
	demosaicGreen(res.Chan(1), f.Data, width, height)
	demosaicBlue (res.Chan(2), f.Data, width, height)
	return res, nil
}

// Interpolates the red samples at offset (0,0) of each 2x2 RGGB cell onto the full plane
func demosaicRed(rs, data []float32, width, height int32) {
	for row:=int32(0); row<height; row+=2 {
		for col:=int32(0); col<width; col+=2 {
			offset:=row*width+col

			// read relevant red values
			r:=data[offset]
			rRight, rDown, rRD:=r, r, r
			if col+2<width {
				rRight=data[offset+2]
				if row+2<height {
					rDown=data[offset+  2*width]
					rRD  =data[offset+2+2*width]
				}
			} else if row+2<height {
				rDown=data[offset+2*width]
			}

			// interpolate and write red values
			rs[offset        ]=      r
			rs[offset+1      ]=0.5 *(r+rRight)
			rs[offset  +width]=0.5 *(r+rDown)
			rs[offset+1+width]=0.25*(r+rRight+rDown+rRD)
		}
	}
}

// Interpolates the green samples at offsets (0,1) and (1,0) of each 2x2 RGGB cell
func demosaicGreen(gs, data []float32, width, height int32) {
	for row:=int32(0); row<height; row+=2 {
		for col:=int32(0); col<width; col+=2 {
			offset:=row*width+col

			// read relevant green values
			g1:=data[offset+1    ]
			g2:=data[offset+width]

			g1Left, g2Up:=g1, 0.5*(g1+g2)
			if col>=2 {
				g1Left=data[offset-1]
				if row>=2 {
					g2Up=data[offset-1-width]
				}
			}
			g2Right, g1Down:=g2, 0.5*(g1+g2)
			if col<width-2 {
				g2Right=data[offset+2+width]
				if row<height-2 {
					g1Down=data[offset+1+2*width]
				}
			}

			// interpolate and write green values
			gs[offset        ]=0.25*(g1+g2+g1Left+g2Up)
			gs[offset+1      ]=      g1
			gs[offset  +width]=         g2
			gs[offset+1+width]=0.25*(g1+g2+g2Right+g1Down)
		}
	}
}

// Interpolates the blue samples at offset (1,1) of each 2x2 RGGB cell onto the full plane
func demosaicBlue(bs, data []float32, width, height int32) {
	for row:=int32(0); row<height; row+=2 {
		for col:=int32(0); col<width; col+=2 {
			offset:=row*width+col

			// read relevant blue values
			b:=data[offset+1+width]
			bLeft, bUp, bLU:=b, b, b
			if col>=2 {
				bLeft=data[offset-1+width]
				if row>=2 {
					bUp=data[offset+1-width]
					bLU=data[offset-1-width]
				}
			} else if row>=2 {
				bUp=data[offset+1-width]
			}

			// interpolate and write blue values
			bs[offset        ]=0.25*(b+bLeft+bUp+bLU)
			bs[offset+1      ]=0.5 *(b+bUp)
			bs[offset  +width]=0.5 *(b+bLeft)
			bs[offset+1+width]=      b
		}
	}
}
