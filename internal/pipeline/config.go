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


package pipeline

import (
	"fmt"
	"sort"

	"github.com/mvoggel/rawburst/internal/align"
	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/synth"
)

// An immutable pipeline configuration. The historical dataset variants differ
// only in these values and exist as named presets, not separate code paths.
type Config struct {
	BurstSize        int                         `json:"burstSize"`
	CropSize         int32                       `json:"cropSize"`         // ground truth edge length, pre border crop
	DownsampleFactor int                         `json:"downsampleFactor"`
	Transform        synth.TransformParams       `json:"transform"`
	Processing       synth.ImageProcessingParams `json:"processing"`
	Interpolation    synth.InterpType            `json:"interpolation"`
	Mosaic           synth.MosaicKind            `json:"mosaic"`
	Alignment        align.Mode                  `json:"alignment"`
	FlattenMosaic    bool                        `json:"flattenMosaic"`    // attach flattened single-plane mosaics
	BaseFrame        bool                        `json:"baseFrame"`        // demosaic the reference mosaic into an RGB base frame
	IncludeRGBBurst  bool                        `json:"includeRGBBurst"`
	IncludeFlow      bool                        `json:"includeFlow"`
	IncludeMeta      bool                        `json:"includeMeta"`
	Seed             uint64                      `json:"seed"`             // per-pipeline seed, mixed with the sample index
}

// Validates the configuration at construction time
func (c *Config) Validate() error {
	if c.BurstSize<1 {
		return fmt.Errorf("invalid burst size %d", c.BurstSize)
	}
	if c.CropSize<1 {
		return fmt.Errorf("invalid crop size %d", c.CropSize)
	}
	if c.DownsampleFactor<1 {
		return fmt.Errorf("invalid downsample factor %d", c.DownsampleFactor)
	}
	if err:=c.Interpolation.Validate(); err!=nil { return err }

	cellSize:=int32(2)
	if c.Mosaic==synth.MosaicQuad { cellSize=4 }
	full:=c.CropSize + 2*c.Transform.BorderCrop
	if full%(int32(c.DownsampleFactor)*cellSize)!=0 {
		return fmt.Errorf("cropped size %d must be a multiple of downsample factor %d times mosaic cell %d",
			full, c.DownsampleFactor, cellSize)
	}
	switch c.Alignment {
	case align.ModeNone, align.ModeWholeFrame, align.ModePerChannel:
	default:
		return fmt.Errorf("unknown alignment mode %d", c.Alignment)
	}
	if c.Alignment==align.ModeWholeFrame && !c.IncludeRGBBurst {
		return fmt.Errorf("whole-frame alignment runs on the RGB burst, enable includeRGBBurst")
	}
	return nil
}

// Working domain for registration, fixed per alignment granularity and mosaic
// layout. Registration is scale-sensitive, so these must not be changed.
func (c *Config) alignDomain() frame.Domain {
	if c.Alignment==align.ModeWholeFrame {
		return frame.Domain8Bit
	}
	if c.Mosaic==synth.MosaicQuad {
		return frame.Domain14BitRounded
	}
	return frame.Domain14Bit
}

func defaultConfig() Config {
	return Config{
		BurstSize:        8,
		CropSize:         384,
		DownsampleFactor: 4,
		Transform:        synth.TransformParams{MaxTranslation: 24, MaxRotation: 1, MaxShear: 0, MaxScale: 0, BorderCrop: 24},
		Processing:       synth.ImageProcessingParams{RandomCCM: true, RandomGains: true, Smoothstep: true, Gamma: true, AddNoise: true},
		Interpolation:    synth.InterpBilinear,
		Mosaic:           synth.MosaicRGGB,
		Alignment:        align.ModeNone,
		IncludeRGBBurst:  true,
		IncludeFlow:      true,
		IncludeMeta:      true,
	}
}

// Named presets for the supported dataset variants
func Presets() map[string]Config {
	raw:=defaultConfig()

	rgb:=defaultConfig()
	rgb.Processing=synth.ImageProcessingParams{}

	rgbAligned:=rgb
	rgbAligned.Alignment=align.ModeWholeFrame
	rgbAligned.IncludeFlow=false
	rgbAligned.IncludeMeta=false

	rawAligned:=defaultConfig()
	rawAligned.Alignment=align.ModePerChannel
	rawAligned.IncludeFlow=false

	quad:=defaultConfig()
	quad.Mosaic=synth.MosaicQuad
	quad.FlattenMosaic=true
	quad.BaseFrame=true

	quadAligned:=quad
	quadAligned.Alignment=align.ModePerChannel
	quadAligned.IncludeFlow=false

	return map[string]Config{
		"synthetic-raw":         raw,
		"synthetic-rgb":         rgb,
		"synthetic-rgb-aligned": rgbAligned,
		"synthetic-raw-aligned": rawAligned,
		"quad-bayer":            quad,
		"quad-bayer-aligned":    quadAligned,
	}
}

// Returns the preset names in stable order
func PresetNames() []string {
	ps:=Presets()
	names:=make([]string, 0, len(ps))
	for name:=range(ps) { names=append(names, name) }
	sort.Strings(names)
	return names
}
