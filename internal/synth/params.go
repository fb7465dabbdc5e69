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

	"github.com/mvoggel/rawburst/internal/reg"
)

// Geometric burst motion parameters. Each moving frame receives a random
// perturbation drawn within these bounds; frame 0 stays untouched.
type TransformParams struct {
	MaxTranslation float32 `json:"maxTranslation"` // in pixels, at full resolution
	MaxRotation    float32 `json:"maxRotation"`    // in degrees
	MaxShear       float32 `json:"maxShear"`
	MaxScale       float32 `json:"maxScale"`
	BorderCrop     int32   `json:"borderCrop"`     // pixels trimmed symmetrically from the ground truth
}

// Inverse camera pipeline toggles, each independently switchable
type ImageProcessingParams struct {
	RandomCCM   bool `json:"randomCCM"`
	RandomGains bool `json:"randomGains"`
	Smoothstep  bool `json:"smoothstep"`
	Gamma       bool `json:"gamma"`
	AddNoise    bool `json:"addNoise"`
}

// Interpolation used when warping moving frames
type InterpType string

const InterpBilinear InterpType = "bilinear"

func (i InterpType) Validate() error {
	if i!=InterpBilinear {
		return fmt.Errorf("unsupported interpolation type %q", string(i))
	}
	return nil
}

// Parameters used to generate one synthetic burst, returned alongside it
type Meta struct {
	RGBGain    float32          `json:"rgbGain"`
	RedGain    float32          `json:"redGain"`
	BlueGain   float32          `json:"blueGain"`
	CCM        [3][3]float32    `json:"ccm"`
	ShotNoise  float32          `json:"shotNoise"`
	ReadNoise  float32          `json:"readNoise"`
	Smoothstep bool             `json:"smoothstep"`
	Gamma      bool             `json:"gamma"`
	Transforms []reg.Transform3 `json:"transforms"` // per-frame motion, index 0 is identity
}
