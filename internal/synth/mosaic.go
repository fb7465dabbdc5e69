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


package synth

import (
	"fmt"

	"github.com/mvoggel/rawburst/internal/frame"
)

// Bayer color channel per mosaic offset: R at (0,0), G at (0,1) and (1,0), B at (1,1)
var rggbColors=[4]int32{0, 1, 1, 2}

var rggbOffsets=[4][2]int32{ {0,0}, {0,1}, {1,0}, {1,1} }

// Mosaics a 3-channel RGB frame of shape (W,H,3) into a packed RGGB frame of
// shape (W/2,H/2,4), sampling each color at its Bayer position
func mosaicRGGB(f *frame.Frame) (*frame.Frame, error) {
	if f.Channels()!=3 {
		return nil, fmt.Errorf("cannot mosaic %d channels, want 3", f.Channels())
	}
	if f.Width()%2!=0 || f.Height()%2!=0 {
		return nil, fmt.Errorf("cannot mosaic odd dimensions %v", f.Naxisn)
	}
	width, height:=f.Width()/2, f.Height()/2
	res:=frame.NewFrameFromNaxisn([]int32{width, height, 4}, nil)
	res.ID=f.ID
	for c:=int32(0); c<4; c++ {
		src:=f.Chan(rggbColors[c])
		dest:=res.Chan(c)
		dy, dx:=rggbOffsets[c][0], rggbOffsets[c][1]
		for row:=int32(0); row<height; row++ {
			for col:=int32(0); col<width; col++ {
				dest[row*width+col]=src[(2*row+dy)*f.Width() + 2*col+dx]
			}
		}
	}
	return res, nil
}

// Mosaics a 3-channel RGB frame of shape (W,H,3) into a packed quad-Bayer
// frame of shape (W/4,H/4,16). Channel c=4*b+s samples the color of coarse
// block b at position s within the 2x2 same-color block, matching the
// flattened layout produced by frame.FlattenQuad.
func mosaicQuad(f *frame.Frame) (*frame.Frame, error) {
	if f.Channels()!=3 {
		return nil, fmt.Errorf("cannot mosaic %d channels, want 3", f.Channels())
	}
	if f.Width()%4!=0 || f.Height()%4!=0 {
		return nil, fmt.Errorf("cannot quad-mosaic dimensions %v, want multiples of 4", f.Naxisn)
	}
	width, height:=f.Width()/4, f.Height()/4
	res:=frame.NewFrameFromNaxisn([]int32{width, height, 16}, nil)
	res.ID=f.ID
	for c:=int32(0); c<16; c++ {
		src:=f.Chan(rggbColors[c/4])
		dest:=res.Chan(c)
		by, bx:=rggbOffsets[c/4][0], rggbOffsets[c/4][1]
		sy, sx:=rggbOffsets[c%4][0], rggbOffsets[c%4][1]
		dy, dx:=2*by+sy, 2*bx+sx
		for row:=int32(0); row<height; row++ {
			for col:=int32(0); col<width; col++ {
				dest[row*width+col]=src[(4*row+dy)*f.Width() + 4*col+dx]
			}
		}
	}
	return res, nil
}
