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
)

// Color correction matrices of four real cameras, per Brooks et al.,
// "Unprocessing Images for Learned Raw Denoising", CVPR 2019
var cameraCCMs=[4][3][3]float32{
	{ { 1.0234, -0.2969, -0.2266}, {-0.5625,  1.6328, -0.0469}, {-0.0703,  0.2188,  0.6406} },
	{ { 0.4913, -0.0541, -0.0202}, {-0.6130,  1.3513,  0.2906}, {-0.1564,  0.2151,  0.7183} },
	{ { 0.8380, -0.2630, -0.0639}, {-0.2887,  1.0725,  0.2496}, {-0.0627,  0.1427,  0.5438} },
	{ { 0.6596, -0.2079, -0.0562}, {-0.4782,  1.3016,  0.1933}, {-0.1036,  0.1105,  0.6534} },
}

// uniform float in [0,1)
func uniform(rng *fastrand.RNG) float32 {
	return float32(rng.Uint32n(1<<24))/float32(1<<24)
}

// uniform float in [lo,hi)
func uniformIn(rng *fastrand.RNG, lo, hi float32) float32 {
	return lo + (hi-lo)*uniform(rng)
}

// Samples a random color correction matrix as a convex combination of the
// fixed camera matrices, with rows normalized to sum to one
func randomCCM(rng *fastrand.RNG) (ccm [3][3]float32) {
	var weights [4]float32
	var sum float32
	for i:=range(weights) {
		weights[i]=uniform(rng)
		sum+=weights[i]
	}
	if sum==0 { weights[0], sum=1, 1 }

	for _,i:=range([]int{0,1,2,3}) {
		w:=weights[i]/sum
		for r:=0; r<3; r++ {
			for c:=0; c<3; c++ {
				ccm[r][c]+=w*cameraCCMs[i][r][c]
			}
		}
	}
	// normalize rows so white maps to white
	for r:=0; r<3; r++ {
		rowSum:=ccm[r][0]+ccm[r][1]+ccm[r][2]
		for c:=0; c<3; c++ {
			ccm[r][c]/=rowSum
		}
	}
	return ccm
}

// Samples random global and per-channel white balance gains
func randomGains(rng *fastrand.RNG) (rgbGain, redGain, blueGain float32) {
	// global gain around 1/0.8, red and blue per typical daylight balances
	n:=0.8 + 0.1*gaussian(rng)
	if n<0.1 { n=0.1 }
	rgbGain=1.0/n
	redGain =uniformIn(rng, 1.9, 2.4)
	blueGain=uniformIn(rng, 1.5, 1.9)
	return rgbGain, redGain, blueGain
}

// Box-Muller standard normal from the uniform generator; noise sampling
// proper uses gonum distuv, this is only for scalar gain jitter
func gaussian(rng *fastrand.RNG) float32 {
	u1:=float64(uniform(rng))
	if u1<1e-12 { u1=1e-12 }
	u2:=float64(uniform(rng))
	return float32(math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2))
}

// Inverts the sRGB-style tone curve and color processing of a clean RGB frame,
// mapping it into linear sensor space. Runs in place on a copy of f.
func unprocess(f *frame.Frame, ipp ImageProcessingParams, rng *fastrand.RNG, meta *Meta) *frame.Frame {
	res:=f.Clone()
	rs, gs, bs:=res.Chan(0), res.Chan(1), res.Chan(2)
	pp:=res.PlanePixels()

	if ipp.Smoothstep {
		meta.Smoothstep=true
		for _,ch:=range([][]float32{rs, gs, bs}) {
			for i,v:=range(ch) { ch[i]=invertSmoothstep(v) }
		}
	}
	if ipp.Gamma {
		meta.Gamma=true
		for _,ch:=range([][]float32{rs, gs, bs}) {
			for i,v:=range(ch) { ch[i]=invertGamma(v) }
		}
	}
	if ipp.RandomCCM {
		meta.CCM=randomCCM(rng)
		m:=meta.CCM
		for i:=int32(0); i<pp; i++ {
			r, g, b:=rs[i], gs[i], bs[i]
			rs[i]=m[0][0]*r + m[0][1]*g + m[0][2]*b
			gs[i]=m[1][0]*r + m[1][1]*g + m[1][2]*b
			bs[i]=m[2][0]*r + m[2][1]*g + m[2][2]*b
		}
	} else {
		meta.CCM=[3][3]float32{ {1,0,0}, {0,1,0}, {0,0,1} }
	}
	if ipp.RandomGains {
		meta.RGBGain, meta.RedGain, meta.BlueGain=randomGains(rng)
		invRGB:=1.0/meta.RGBGain
		invRed, invBlue:=1.0/meta.RedGain, 1.0/meta.BlueGain
		for i:=int32(0); i<pp; i++ {
			rs[i]*=invRGB*invRed
			gs[i]*=invRGB
			bs[i]*=invRGB*invBlue
		}
	} else {
		meta.RGBGain, meta.RedGain, meta.BlueGain=1, 1, 1
	}
	return res
}

// Inverse of the smoothstep tone curve 3t^2-2t^3 on [0,1]
func invertSmoothstep(v float32) float32 {
	if v<0 { v=0 } else if v>1 { v=1 }
	return float32(0.5 - math.Sin(math.Asin(1.0-2.0*float64(v))/3.0))
}

// Inverse of display gamma, x^2.2 with a small epsilon guard
func invertGamma(v float32) float32 {
	if v<1e-8 { v=1e-8 }
	return float32(math.Pow(float64(v), 2.2))
}
