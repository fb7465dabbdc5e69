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

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"github.com/mvoggel/rawburst/internal/frame"
)

// Shot noise bounds from the Brooks et al. sensor noise model
const (
	minShotNoise = 0.0001
	maxShotNoise = 0.012
)

// Samples a random shot/read noise level pair. Shot noise is log-uniform in
// its bounds, read noise follows the fitted log-linear relation with jitter.
func randomNoiseLevels(src rand.Source) (shot, read float32) {
	uni:=distuv.Uniform{Min: math.Log(minShotNoise), Max: math.Log(maxShotNoise), Src: src}
	logShot:=uni.Rand()
	shot=float32(math.Exp(logShot))

	norm:=distuv.Normal{Mu: 0, Sigma: 0.26, Src: src}
	logRead:=2.18*logShot + 1.20 + norm.Rand()
	read=float32(math.Exp(logRead))
	return shot, read
}

// Adds signal-dependent Gaussian noise in place: variance = v*shot + read
func addNoise(f *frame.Frame, shot, read float32, src rand.Source) {
	norm:=distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	for i,v:=range(f.Data) {
		variance:=v*shot + read
		if variance<0 { variance=0 }
		f.Data[i]=v + float32(norm.Rand()*math.Sqrt(float64(variance)))
	}
}
