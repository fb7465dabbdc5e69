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

// Bayer sub-pixel offsets for the RGGB pattern, as (row, col) pairs.
// Pattern: RGRGRGRG
//          GBGBGBGB
//          RGRGRGRG
//          GBGBGBGB
var bayerOffsets=[4][2]int32{ {0,0}, {0,1}, {1,0}, {1,1} }

// Interleaves a packed 4-plane Bayer frame of shape (W,H,4) into a single
// flattened mosaic plane of shape (2W,2H). Pure index remapping, no numeric change.
func FlattenBayer(f *Frame) (*Frame, error) {
	if f.Channels()!=4 {
		return nil, fmt.Errorf("cannot flatten %d channels as a bayer mosaic, want 4", f.Channels())
	}
	width, height:=f.Width(), f.Height()
	res:=NewFrameFromNaxisn([]int32{2*width, 2*height}, nil)
	res.ID=f.ID
	for c:=int32(0); c<4; c++ {
		src:=f.Chan(c)
		dy, dx:=bayerOffsets[c][0], bayerOffsets[c][1]
		for row:=int32(0); row<height; row++ {
			for col:=int32(0); col<width; col++ {
				res.Data[(2*row+dy)*2*width + 2*col+dx]=src[row*width+col]
			}
		}
	}
	return res, nil
}

// Splits a flattened mosaic plane of shape (2W,2H) into a packed 4-plane
// Bayer frame of shape (W,H,4). Exact inverse of FlattenBayer.
func PackBayer(f *Frame) (*Frame, error) {
	if f.Channels()!=1 {
		return nil, fmt.Errorf("cannot pack %d channels as a bayer mosaic, want a single plane", f.Channels())
	}
	if f.Width()%2!=0 || f.Height()%2!=0 {
		return nil, fmt.Errorf("cannot pack odd mosaic dimensions %v", f.Naxisn)
	}
	width, height:=f.Width()/2, f.Height()/2
	res:=NewFrameFromNaxisn([]int32{width, height, 4}, nil)
	res.ID=f.ID
	for c:=int32(0); c<4; c++ {
		dest:=res.Chan(c)
		dy, dx:=bayerOffsets[c][0], bayerOffsets[c][1]
		for row:=int32(0); row<height; row++ {
			for col:=int32(0); col<width; col++ {
				dest[row*width+col]=f.Data[(2*row+dy)*2*width + 2*col+dx]
			}
		}
	}
	return res, nil
}

// Interleaves a packed 16-plane quad-Bayer frame of shape (W,H,16) into a single
// flattened mosaic plane of shape (4W,4H). Channel c=4*b+s places plane c at the
// coarse 2x2 color block b, position s within the 2x2 same-color block.
func FlattenQuad(f *Frame) (*Frame, error) {
	if f.Channels()!=16 {
		return nil, fmt.Errorf("cannot flatten %d channels as a quad-bayer mosaic, want 16", f.Channels())
	}
	width, height:=f.Width(), f.Height()
	res:=NewFrameFromNaxisn([]int32{4*width, 4*height}, nil)
	res.ID=f.ID
	for c:=int32(0); c<16; c++ {
		src:=f.Chan(c)
		by, bx:=bayerOffsets[c/4][0], bayerOffsets[c/4][1]
		sy, sx:=bayerOffsets[c%4][0], bayerOffsets[c%4][1]
		dy, dx:=2*by+sy, 2*bx+sx
		for row:=int32(0); row<height; row++ {
			for col:=int32(0); col<width; col++ {
				res.Data[(4*row+dy)*4*width + 4*col+dx]=src[row*width+col]
			}
		}
	}
	return res, nil
}

// Splits a flattened quad-Bayer mosaic plane of shape (4W,4H) into a packed
// 16-plane frame of shape (W,H,16). Exact inverse of FlattenQuad.
func PackQuad(f *Frame) (*Frame, error) {
	if f.Channels()!=1 {
		return nil, fmt.Errorf("cannot pack %d channels as a quad-bayer mosaic, want a single plane", f.Channels())
	}
	if f.Width()%4!=0 || f.Height()%4!=0 {
		return nil, fmt.Errorf("cannot quad-pack mosaic dimensions %v, want multiples of 4", f.Naxisn)
	}
	width, height:=f.Width()/4, f.Height()/4
	res:=NewFrameFromNaxisn([]int32{width, height, 16}, nil)
	res.ID=f.ID
	for c:=int32(0); c<16; c++ {
		dest:=res.Chan(c)
		by, bx:=bayerOffsets[c/4][0], bayerOffsets[c/4][1]
		sy, sx:=bayerOffsets[c%4][0], bayerOffsets[c%4][1]
		dy, dx:=2*by+sy, 2*bx+sx
		for row:=int32(0); row<height; row++ {
			for col:=int32(0); col<width; col++ {
				dest[row*width+col]=f.Data[(4*row+dy)*4*width + 4*col+dx]
			}
		}
	}
	return res, nil
}

// Rebins a packed 16-plane quad-Bayer frame into a packed 4-plane Bayer frame
// by averaging the four same-color planes of each coarse block. Used to feed
// quad mosaics into the standard Bayer demosaicker.
func BinQuadToBayer(f *Frame) (*Frame, error) {
	if f.Channels()!=16 {
		return nil, fmt.Errorf("cannot rebin %d channels as quad-bayer, want 16", f.Channels())
	}
	res:=NewFrameFromNaxisn([]int32{f.Width(), f.Height(), 4}, nil)
	res.ID=f.ID
	pp:=f.PlanePixels()
	for b:=int32(0); b<4; b++ {
		dest:=res.Chan(b)
		for s:=int32(0); s<4; s++ {
			src:=f.Chan(4*b+s)
			for i:=int32(0); i<pp; i++ {
				dest[i]+=0.25*src[i]
			}
		}
	}
	return res, nil
}

// Flattens a packed frame according to its channel count. Fails on channel
// counts not matching a known packing scheme.
func Flatten(f *Frame) (*Frame, error) {
	switch f.Channels() {
	case  4: return FlattenBayer(f)
	case 16: return FlattenQuad(f)
	default: return nil, fmt.Errorf("no packing scheme for %d channels", f.Channels())
	}
}
