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
	"math"
	"testing"

	"github.com/mvoggel/rawburst/internal/align"
	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/synth"
)

// single-frame source with a smooth synthetic image
type testSource struct {
	f *frame.Frame
}

func (s testSource) Len() int { return 1 }

func (s testSource) Frame(index int) (*frame.Frame, error) { return s.f.Clone(), nil }

func newTestSource(width, height int32) testSource {
	f:=frame.NewFrameFromNaxisn([]int32{width, height, 3}, nil)
	for c:=int32(0); c<3; c++ {
		plane:=f.Chan(c)
		for y:=int32(0); y<height; y++ {
			for x:=int32(0); x<width; x++ {
				v:=0.5 + 0.4*math.Sin(float64(x)*0.31+float64(c)) * math.Cos(float64(y)*0.17)
				plane[y*width+x]=float32(v)
			}
		}
	}
	return testSource{f: f}
}

// small configuration that keeps the tests fast
func testConfig() Config {
	cfg:=defaultConfig()
	cfg.BurstSize=2
	cfg.CropSize=32
	cfg.DownsampleFactor=2
	cfg.Transform=synth.TransformParams{MaxTranslation: 2, MaxRotation: 0.5, BorderCrop: 4}
	cfg.Processing=synth.ImageProcessingParams{}
	return cfg
}

func testCtx() *Context {
	return &Context{Log: nil, MemoryMB: 1024, MaxThreads: 2}
}

func TestPresetsValidate(t *testing.T) {
	names:=PresetNames()
	if len(names)!=6 { t.Fatalf("have %d presets; want 6", len(names)) }
	for name,cfg:=range(Presets()) {
		if err:=cfg.Validate(); err!=nil { t.Errorf("preset %s: %s", name, err.Error()) }
	}
}

func TestPipelineRecordShapes(t *testing.T) {
	p, err:=New(testConfig(), newTestSource(64, 64), testCtx())
	if err!=nil { t.Fatalf("New: %s", err.Error()) }
	if p.Len()!=1 { t.Errorf("Len=%d; want 1", p.Len()) }

	rec, err:=p.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }

	// full crop 32+2*4=40, downsampled by 2 to 20, mosaicked to 10
	if len(rec.Burst)!=2 { t.Fatalf("burst length %d; want 2", len(rec.Burst)) }
	for i,f:=range(rec.Burst) {
		if !frame.EqualInt32Slice(f.Naxisn, []int32{10, 10, 4}) { t.Errorf("raw %d naxisn=%v; want [10 10 4]", i, f.Naxisn) }
	}
	if !frame.EqualInt32Slice(rec.GroundTruth.Naxisn, []int32{32, 32, 3}) { t.Errorf("gt naxisn=%v; want [32 32 3]", rec.GroundTruth.Naxisn) }
	for i,f:=range(rec.RGBBurst) {
		if !frame.EqualInt32Slice(f.Naxisn, []int32{20, 20, 3}) { t.Errorf("rgb %d naxisn=%v; want [20 20 3]", i, f.Naxisn) }
	}
	for i,f:=range(rec.Flow) {
		if !frame.EqualInt32Slice(f.Naxisn, []int32{20, 20, 2}) { t.Errorf("flow %d naxisn=%v; want [20 20 2]", i, f.Naxisn) }
	}
	if rec.Meta==nil { t.Errorf("meta missing") }
	if rec.Flat!=nil || rec.BaseFrame!=nil { t.Errorf("unrequested outputs present") }
}

func TestPipelineAsMapKeys(t *testing.T) {
	p, err:=New(testConfig(), newTestSource(64, 64), testCtx())
	if err!=nil { t.Fatalf("New: %s", err.Error()) }
	rec, err:=p.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }

	m:=rec.AsMap()
	for _,key:=range([]string{"burst", "gt", "burst_rgb", "flow_vectors", "meta_info"}) {
		if _, ok:=m[key]; !ok { t.Errorf("key %s missing", key) }
	}
	for _,key:=range([]string{"burst_flat", "base_frame"}) {
		if _, ok:=m[key]; ok { t.Errorf("unrequested key %s present", key) }
	}
}

func TestPipelineDeterministic(t *testing.T) {
	cfg:=testConfig()
	cfg.Processing=synth.ImageProcessingParams{RandomCCM: true, RandomGains: true, Smoothstep: true, Gamma: true, AddNoise: true}
	cfg.Seed=1234

	p, err:=New(cfg, newTestSource(64, 64), testCtx())
	if err!=nil { t.Fatalf("New: %s", err.Error()) }

	a, err:=p.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }
	b, err:=p.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }

	for i:=range(a.Burst) {
		for j:=range(a.Burst[i].Data) {
			if a.Burst[i].Data[j]!=b.Burst[i].Data[j] { t.Fatalf("repeated lookup differs in frame %d at %d", i, j) }
		}
	}
	if a.Meta.ShotNoise!=b.Meta.ShotNoise { t.Errorf("repeated lookup draws different noise levels") }
}

func TestPipelineQuadOutputs(t *testing.T) {
	cfg:=testConfig()
	cfg.Mosaic=synth.MosaicQuad
	cfg.FlattenMosaic=true
	cfg.BaseFrame=true

	p, err:=New(cfg, newTestSource(64, 64), testCtx())
	if err!=nil { t.Fatalf("New: %s", err.Error()) }
	rec, err:=p.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }

	// LR size 20 packs into 5x5x16 quad mosaics
	for i,f:=range(rec.Burst) {
		if !frame.EqualInt32Slice(f.Naxisn, []int32{5, 5, 16}) { t.Errorf("raw %d naxisn=%v; want [5 5 16]", i, f.Naxisn) }
	}
	for i,f:=range(rec.Flat) {
		if !frame.EqualInt32Slice(f.Naxisn, []int32{20, 20}) { t.Errorf("flat %d naxisn=%v; want [20 20]", i, f.Naxisn) }
	}
	// quad base frame rebins to a 10x10 Bayer mosaic before demosaicking
	if !frame.EqualInt32Slice(rec.BaseFrame.Naxisn, []int32{10, 10, 3}) { t.Errorf("base naxisn=%v; want [10 10 3]", rec.BaseFrame.Naxisn) }

	// flattened mosaics are pure remappings of the packed burst
	packed, err:=frame.PackQuad(rec.Flat[0])
	if err!=nil { t.Fatalf("PackQuad: %s", err.Error()) }
	for i:=range(packed.Data) {
		if packed.Data[i]!=rec.Burst[0].Data[i] { t.Fatalf("flat[0] does not repack to burst[0] at %d", i) }
	}
}

func TestPipelinePerChannelAlignedReference(t *testing.T) {
	cfg:=testConfig()
	plain, err:=New(cfg, newTestSource(64, 64), testCtx())
	if err!=nil { t.Fatalf("New: %s", err.Error()) }

	cfg.Alignment=align.ModePerChannel
	cfg.IncludeFlow=false
	aligned, err:=New(cfg, newTestSource(64, 64), testCtx())
	if err!=nil { t.Fatalf("New: %s", err.Error()) }

	a, err:=plain.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }
	b, err:=aligned.Get(0)
	if err!=nil { t.Fatalf("Get: %s", err.Error()) }

	// alignment must pass the raw reference frame through untouched
	for i:=range(a.Burst[0].Data) {
		if a.Burst[0].Data[i]!=b.Burst[0].Data[i] { t.Fatalf("aligned reference frame differs at %d", i) }
	}
}

func TestConfigValidation(t *testing.T) {
	cfg:=testConfig()
	cfg.CropSize=33 // 33+8=41 not divisible by df*cell=4
	if err:=cfg.Validate(); err==nil { t.Errorf("accepted indivisible crop size") }

	cfg=testConfig()
	cfg.Alignment=align.ModeWholeFrame
	cfg.IncludeRGBBurst=false
	if err:=cfg.Validate(); err==nil { t.Errorf("accepted whole-frame alignment without RGB burst") }

	cfg=testConfig()
	cfg.BurstSize=0
	if err:=cfg.Validate(); err==nil { t.Errorf("accepted burst size 0") }

	if _, err:=New(testConfig(), nil, testCtx()); err==nil { t.Errorf("accepted nil source") }
}

func TestAlignDomains(t *testing.T) {
	cfg:=testConfig()
	cfg.Alignment=align.ModeWholeFrame
	if d:=cfg.alignDomain(); d!=frame.Domain8Bit { t.Errorf("whole-frame domain %s; want 8bit", d.String()) }

	cfg=testConfig()
	cfg.Alignment=align.ModePerChannel
	if d:=cfg.alignDomain(); d!=frame.Domain14Bit { t.Errorf("per-channel domain %s; want 14bit", d.String()) }

	cfg.Mosaic=synth.MosaicQuad
	if d:=cfg.alignDomain(); d!=frame.Domain14BitRounded { t.Errorf("quad domain %s; want 14bitRounded", d.String()) }
}
