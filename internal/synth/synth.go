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
	"io"

	"golang.org/x/exp/rand"
	"github.com/valyala/fastrand"
	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/reg"
)

// Mosaic layout of the synthesized raw burst
type MosaicKind int

const (
	MosaicRGGB MosaicKind = iota // packed 4-channel Bayer
	MosaicQuad                   // packed 16-channel quad-Bayer
)

// A synthesized burst with its ground truth and auxiliary outputs
type Result struct {
	Burst       frame.Burst  // packed raw mosaic burst
	GroundTruth *frame.Frame // full-resolution linear RGB, frame 0 geometry
	RGBBurst    frame.Burst  // downsampled linear RGB burst before mosaicking
	Flow        frame.Burst  // per-frame 2-channel flow at the LR RGB grid
	Meta        Meta
}

// Synthesizes a raw burst from a single clean RGB frame: the frame is mapped
// into linear sensor space with the inverse camera pipeline, perturbed by
// random sub-pixel camera motion per moving frame, downsampled, mosaicked and
// optionally corrupted by sensor noise.
func Synthesize(f *frame.Frame, burstSize, downsampleFactor int, tp TransformParams,
	ipp ImageProcessingParams, interp InterpType, kind MosaicKind, seed uint64,
	logWriter io.Writer) (*Result, error) {

	if f.Channels()!=3 {
		return nil, fmt.Errorf("burst synthesis wants a 3-channel RGB frame, have %d channels", f.Channels())
	}
	if burstSize<1 {
		return nil, fmt.Errorf("invalid burst size %d", burstSize)
	}
	if downsampleFactor<1 {
		return nil, fmt.Errorf("invalid downsample factor %d", downsampleFactor)
	}
	if err:=interp.Validate(); err!=nil { return nil, err }

	rng:=&fastrand.RNG{}
	rng.Seed(uint32(seed))
	noiseSrc:=rand.NewSource(seed)

	res:=&Result{Meta: Meta{Transforms: make([]reg.Transform3, burstSize)}}

	// inverse camera pipeline: clean sRGB-like input to linear sensor space
	linear:=unprocess(f, ipp, rng, &res.Meta)
	res.GroundTruth=linear.Clone()

	df:=int32(downsampleFactor)
	lrWidth, lrHeight:=f.Width()/df, f.Height()/df

	res.Burst=make(frame.Burst, burstSize)
	res.RGBBurst=make(frame.Burst, burstSize)
	res.Flow=make(frame.Burst, burstSize)
	for i:=0; i<burstSize; i++ {
		trans:=reg.IdentityTransform3()
		moved:=linear
		if i>0 {
			var err error
			trans, err=randomTransform(tp, f.Width(), f.Height(), rng)
			if err!=nil { return nil, err }
			moved, err=warpFrame(linear, trans)
			if err!=nil { return nil, err }
		}
		res.Meta.Transforms[i]=trans

		rgb:=downsample(moved, df)
		rgb.ID=i
		res.RGBBurst[i]=rgb
		res.Flow[i]=flowField(trans, lrWidth, lrHeight, downsampleFactor)
		res.Flow[i].ID=i

		var raw *frame.Frame
		var err error
		switch kind {
		case MosaicRGGB: raw, err=mosaicRGGB(rgb)
		case MosaicQuad: raw, err=mosaicQuad(rgb)
		default: err=fmt.Errorf("unknown mosaic kind %d", kind)
		}
		if err!=nil { return nil, err }
		raw.ID=i
		res.Burst[i]=raw
	}

	if ipp.AddNoise {
		res.Meta.ShotNoise, res.Meta.ReadNoise=randomNoiseLevels(noiseSrc)
		for _,raw:=range(res.Burst) {
			addNoise(raw, res.Meta.ShotNoise, res.Meta.ReadNoise, noiseSrc)
		}
		if logWriter!=nil {
			fmt.Fprintf(logWriter, "added noise with shot=%.6f read=%.6f\n",
				res.Meta.ShotNoise, res.Meta.ReadNoise)
		}
	}
	return res, nil
}

// Extracts a random crop of the given size from the frame, all channels.
// The crop offset is the only source of randomness.
func RandomCrop(f *frame.Frame, cropSz int32, rng *fastrand.RNG) (*frame.Frame, error) {
	width, height, chans:=f.Width(), f.Height(), f.Channels()
	if cropSz>width || cropSz>height {
		return nil, fmt.Errorf("crop size %d exceeds frame dimensions %v", cropSz, f.Naxisn)
	}
	x0:=int32(0)
	y0:=int32(0)
	if width>cropSz  { x0=int32(rng.Uint32n(uint32(width-cropSz+1))) }
	if height>cropSz { y0=int32(rng.Uint32n(uint32(height-cropSz+1))) }

	naxisn:=[]int32{cropSz, cropSz}
	if len(f.Naxisn)>2 { naxisn=append(naxisn, chans) }
	res:=frame.NewFrameFromNaxisn(naxisn, nil)
	res.ID=f.ID
	for c:=int32(0); c<chans; c++ {
		src, dest:=f.Chan(c), res.Chan(c)
		for row:=int32(0); row<cropSz; row++ {
			srcOffset:=(row+y0)*width+x0
			copy(dest[row*cropSz:(row+1)*cropSz], src[srcOffset:srcOffset+cropSz])
		}
	}
	return res, nil
}
