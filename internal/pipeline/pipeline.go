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

	"github.com/valyala/fastrand"
	"github.com/mvoggel/rawburst/internal/align"
	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/synth"
)

// A source of clean base frames, e.g. a directory of still images
type Source interface {
	Len() int
	Frame(index int) (*frame.Frame, error)
}

// One training sample. Fields beyond Burst and GroundTruth are populated
// per configuration; nil fields were not requested. No state is shared
// between records, every lookup constructs a fresh one.
type Record struct {
	Burst       frame.Burst   // packed raw burst, aligned when the variant says so
	GroundTruth *frame.Frame  // border-cropped full-resolution linear RGB
	RGBBurst    frame.Burst   // optional LR RGB burst, aligned in whole-frame variants
	Flow        frame.Burst   // optional ground-truth flow fields
	Flat        frame.Burst   // optional flattened single-plane mosaics
	BaseFrame   *frame.Frame  // optional demosaicked reference frame
	Meta        *synth.Meta   // optional generation parameters
}

// Labeled-mapping view of the record, with the historical key names.
// Nil fields are omitted.
func (r *Record) AsMap() map[string]interface{} {
	m:=map[string]interface{}{
		"burst": r.Burst,
		"gt":    r.GroundTruth,
	}
	if r.RGBBurst!=nil  { m["burst_rgb"]=r.RGBBurst }
	if r.Flow!=nil      { m["flow_vectors"]=r.Flow }
	if r.Flat!=nil      { m["burst_flat"]=r.Flat }
	if r.BaseFrame!=nil { m["base_frame"]=r.BaseFrame }
	if r.Meta!=nil      { m["meta_info"]=r.Meta }
	return m
}

// A configured synthetic burst pipeline over a base frame source.
// Stateless across lookups: Get is a pure index to record function.
type Pipeline struct {
	Config Config
	Source Source
	Ctx    *Context
}

func New(cfg Config, src Source, ctx *Context) (*Pipeline, error) {
	if err:=cfg.Validate(); err!=nil { return nil, err }
	if src==nil { return nil, fmt.Errorf("pipeline needs a frame source") }
	return &Pipeline{Config: cfg, Source: src, Ctx: ctx}, nil
}

func (p *Pipeline) Len() int { return p.Source.Len() }

// Builds the sample record for the given index: random crop, burst synthesis,
// optional alignment pass, optional flatten/demosaic pass, border-cropped
// ground truth, record assembly.
func (p *Pipeline) Get(index int) (*Record, error) {
	cfg:=&p.Config
	base, err:=p.Source.Frame(index)
	if err!=nil { return nil, err }

	seed:=cfg.Seed ^ (uint64(index)+1)*0x9e3779b97f4a7c15
	rng:=&fastrand.RNG{}
	rng.Seed(uint32(seed))

	// crop with extra border margin, trimmed from the ground truth afterwards
	fullCrop:=cfg.CropSize + 2*cfg.Transform.BorderCrop
	crop, err:=synth.RandomCrop(base, fullCrop, rng)
	if err!=nil { return nil, err }

	res, err:=synth.Synthesize(crop, cfg.BurstSize, cfg.DownsampleFactor,
		cfg.Transform, cfg.Processing, cfg.Interpolation, cfg.Mosaic, seed, p.Ctx.Log)
	if err!=nil { return nil, err }

	rec:=&Record{Burst: res.Burst}

	switch cfg.Alignment {
	case align.ModeWholeFrame:
		res.RGBBurst, err=align.Align(res.RGBBurst, align.ModeWholeFrame, cfg.alignDomain(),
			p.Ctx.MaxThreads, p.Ctx.Log)
		if err!=nil { return nil, err }
	case align.ModePerChannel:
		rec.Burst, err=align.Align(res.Burst, align.ModePerChannel, cfg.alignDomain(),
			p.Ctx.MaxThreads, p.Ctx.Log)
		if err!=nil { return nil, err }
	}

	if cfg.FlattenMosaic || cfg.BaseFrame {
		flat:=make(frame.Burst, len(rec.Burst))
		for i,f:=range(rec.Burst) {
			if flat[i], err=frame.Flatten(f); err!=nil { return nil, err }
		}
		if cfg.FlattenMosaic { rec.Flat=flat }
		if cfg.BaseFrame {
			mosaic:=flat[0]
			if cfg.Mosaic==synth.MosaicQuad {
				// quad blocks average down to a plain Bayer mosaic for demosaicking
				bayer, err:=frame.BinQuadToBayer(rec.Burst[0])
				if err!=nil { return nil, err }
				if mosaic, err=frame.FlattenBayer(bayer); err!=nil { return nil, err }
			}
			if rec.BaseFrame, err=frame.Demosaic(mosaic); err!=nil { return nil, err }
		}
	}

	rec.GroundTruth=res.GroundTruth.CropBorder(cfg.Transform.BorderCrop)
	if cfg.IncludeRGBBurst { rec.RGBBurst=res.RGBBurst }
	if cfg.IncludeFlow     { rec.Flow=res.Flow }
	if cfg.IncludeMeta     { rec.Meta=&res.Meta }
	return rec, nil
}
