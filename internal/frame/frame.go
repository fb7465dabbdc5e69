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
	"strings"
)

// A burst frame holding one or more image planes of identical dimensions.
// Values are stored row-major, plane after plane, nominally in [0,1].
type Frame struct {
	ID       int          // Sequential ID number, for log output. 0 is the burst reference frame
	Naxisn   []int32      // Axis dimensions. Most quickly varying dimension first (i.e. X,Y[,C])
	Pixels   int32        // Number of samples in the frame. Product of Naxisn[]

	Data     []float32    // The plane data
}

// Creates a frame from given naxisn. Data is not copied, allocated if nil. naxisn is deep copied
func NewFrameFromNaxisn(naxisn []int32, data []float32) *Frame {
	numPixels:=int32(1)
	for _,naxis:=range(naxisn) {
		numPixels*=naxis
	}
	if data==nil {
		data=make([]float32, numPixels)
	}
	return &Frame{
		ID:       0,
		Naxisn:   append([]int32(nil), naxisn...), // clone slice
		Pixels:   numPixels,
		Data:     data,
	}
}

// Creates a frame with the shape of the given frame. New data array will be allocated
func NewFrameFromFrame(f *Frame) *Frame {
	res:=NewFrameFromNaxisn(f.Naxisn, nil)
	res.ID=f.ID
	return res
}

// Creates a deep copy of the given frame
func (f *Frame) Clone() *Frame {
	res:=NewFrameFromFrame(f)
	copy(res.Data, f.Data)
	return res
}

// Width of a plane in samples
func (f *Frame) Width() int32 { return f.Naxisn[0] }

// Height of a plane in samples
func (f *Frame) Height() int32 { return f.Naxisn[1] }

// Number of planes in the frame. Single-plane frames may omit the third axis
func (f *Frame) Channels() int32 {
	if len(f.Naxisn)<3 { return 1 }
	return f.Naxisn[2]
}

// Number of samples in one plane
func (f *Frame) PlanePixels() int32 { return f.Naxisn[0]*f.Naxisn[1] }

// Returns the data slice for the given plane
func (f *Frame) Chan(c int32) []float32 {
	pp:=f.PlanePixels()
	return f.Data[c*pp : (c+1)*pp]
}

func (f *Frame) DimensionsToString() string {
	b:=strings.Builder{}
	for i,naxis:=range(f.Naxisn) {
		if i>0 {
			fmt.Fprintf(&b, "x%d", naxis)
		} else {
			fmt.Fprintf(&b, "%d", naxis)
		}
	}
	return b.String()
}

// An ordered sequence of frames of identical shape. Index 0 is the reference frame,
// all later frames differ from it by a small geometric perturbation.
type Burst []*Frame

// Validates that all frames in the burst share the shape of the reference frame
func (b Burst) Validate() error {
	if len(b)==0 { return fmt.Errorf("empty burst") }
	ref:=b[0]
	for i,f:=range(b[1:]) {
		if !EqualInt32Slice(f.Naxisn, ref.Naxisn) {
			return fmt.Errorf("frame %d dimensions %v differ from reference dimensions %v",
				i+1, f.Naxisn, ref.Naxisn)
		}
	}
	return nil
}

// Creates a burst of numFrames frames with the given shape
func NewBurst(numFrames int, naxisn []int32) Burst {
	b:=make(Burst, numFrames)
	for i:=range(b) {
		b[i]=NewFrameFromNaxisn(naxisn, nil)
		b[i].ID=i
	}
	return b
}

// Crops the given margin symmetrically from all four sides of every plane
func (f *Frame) CropBorder(margin int32) *Frame {
	width, height, chans:=f.Width(), f.Height(), f.Channels()
	newWidth, newHeight:=width-2*margin, height-2*margin
	naxisn:=[]int32{newWidth, newHeight}
	if len(f.Naxisn)>2 { naxisn=append(naxisn, chans) }

	res:=NewFrameFromNaxisn(naxisn, nil)
	res.ID=f.ID
	for c:=int32(0); c<chans; c++ {
		src, dest:=f.Chan(c), res.Chan(c)
		for row:=int32(0); row<newHeight; row++ {
			srcOffset :=(row+margin)*width+margin
			destOffset:=row*newWidth
			copy(dest[destOffset:destOffset+newWidth], src[srcOffset:srcOffset+newWidth])
		}
	}
	return res
}

// Converts a 3-channel RGB frame into a single-plane Rec.601 luma image
func (f *Frame) Luma() *Frame {
	pp:=f.PlanePixels()
	rs, gs, bs:=f.Chan(0), f.Chan(1), f.Chan(2)
	res:=NewFrameFromNaxisn([]int32{f.Width(), f.Height()}, nil)
	res.ID=f.ID
	for i:=int32(0); i<pp; i++ {
		res.Data[i]=0.299*rs[i] + 0.587*gs[i] + 0.114*bs[i]
	}
	return res
}

// Equal tells whether a and b contain the same elements.
// A nil argument is equivalent to an empty slice.
func EqualInt32Slice(a, b []int32) bool {
    if len(a) != len(b) {
        return false
    }
    for i, v := range a {
        if v != b[i] {
            return false
        }
    }
    return true
}
