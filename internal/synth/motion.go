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
	"math"

	"github.com/valyala/fastrand"
	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/reg"
)

// Samples a random burst motion for one moving frame: translation, rotation,
// shear and scale within the configured bounds, composed about the image center
func randomTransform(tp TransformParams, width, height int32, rng *fastrand.RNG) (reg.Transform3, error) {
	tx:=uniformIn(rng, -tp.MaxTranslation, tp.MaxTranslation)
	ty:=uniformIn(rng, -tp.MaxTranslation, tp.MaxTranslation)
	angle:=uniformIn(rng, -tp.MaxRotation, tp.MaxRotation) * float32(math.Pi) / 180
	shear:=uniformIn(rng, -tp.MaxShear, tp.MaxShear)
	scale:=1 + uniformIn(rng, -tp.MaxScale, tp.MaxScale)

	cx, cy:=float32(width-1)*0.5, float32(height-1)*0.5
	sim:=reg.NewSimilarityAbout(angle, scale, shear, cx, cy)
	return reg.NewTranslation(tx, ty).Mul(sim)
}

// Warps the linear full-resolution RGB frame with the given motion transform.
// The transform maps frame coordinates into reference coordinates, so warping
// samples through its inverse; out of frame pixels are filled with zero.
func warpFrame(f *frame.Frame, trans reg.Transform3) (*frame.Frame, error) {
	res:=frame.NewFrameFromFrame(f)
	for c:=int32(0); c<f.Channels(); c++ {
		warped, err:=reg.Project(f.Chan(c), f.Width(), f.Naxisn[:2], trans, 0)
		if err!=nil { return nil, err }
		copy(res.Chan(c), warped)
	}
	return res, nil
}

// Computes the dense ground-truth flow field for one moving frame at the
// low-resolution RGB grid. The flow maps each LR pixel to the position it
// must sample in the moving frame to warp it back onto the reference.
func flowField(trans reg.Transform3, lrWidth, lrHeight int32, downsampleFactor int) *frame.Frame {
	df:=float32(downsampleFactor)
	res:=frame.NewFrameFromNaxisn([]int32{lrWidth, lrHeight, 2}, nil)
	dx, dy:=res.Chan(0), res.Chan(1)
	for row:=int32(0); row<lrHeight; row++ {
		for col:=int32(0); col<lrWidth; col++ {
			p:=reg.Point2D{X: float32(col)*df, Y: float32(row)*df}
			proj:=trans.Apply(p)
			dx[row*lrWidth+col]=(proj.X-p.X)/df
			dy[row*lrWidth+col]=(proj.Y-p.Y)/df
		}
	}
	return res
}

// Applies NxN box averaging to every plane and returns the downsampled frame
func downsample(f *frame.Frame, n int32) *frame.Frame {
	width, height, chans:=f.Width(), f.Height(), f.Channels()
	binnedWidth, binnedHeight:=width/n, height/n
	naxisn:=[]int32{binnedWidth, binnedHeight}
	if len(f.Naxisn)>2 { naxisn=append(naxisn, chans) }

	binned:=frame.NewFrameFromNaxisn(naxisn, nil)
	binned.ID=f.ID

	normalizer:=1.0/float32(n*n)
	for c:=int32(0); c<chans; c++ {
		src, dest:=f.Chan(c), binned.Chan(c)
		for y:=int32(0); y<binnedHeight; y++ {
			for x:=int32(0); x<binnedWidth; x++ {
				sum:=float32(0)
				for yoff:=int32(0); yoff<n; yoff++ {
					for xoff:=int32(0); xoff<n; xoff++ {
						sum+=src[(y*n+yoff)*width + (x*n+xoff)]
					}
				}
				dest[y*binnedWidth+x]=sum*normalizer
			}
		}
	}
	return binned
}
