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


package align

import (
	"math"
	"testing"

	"github.com/mvoggel/rawburst/internal/frame"
)

// fills every channel with a smooth gaussian blob in [0,1]
func blobFrame(naxisn []int32, cx, cy, sigma float64) *frame.Frame {
	f:=frame.NewFrameFromNaxisn(naxisn, nil)
	width, height:=f.Width(), f.Height()
	for c:=int32(0); c<f.Channels(); c++ {
		plane:=f.Chan(c)
		for y:=int32(0); y<height; y++ {
			for x:=int32(0); x<width; x++ {
				dx, dy:=float64(x)-cx, float64(y)-cy
				plane[y*width+x]=float32(math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
			}
		}
	}
	return f
}

func equalData(a, b *frame.Frame) bool {
	if !frame.EqualInt32Slice(a.Naxisn, b.Naxisn) { return false }
	for i:=range(a.Data) {
		if a.Data[i]!=b.Data[i] { return false }
	}
	return true
}

func TestAlignModeNoneCopies(t *testing.T) {
	b:=frame.Burst{
		blobFrame([]int32{32, 32, 4}, 14, 16, 6),
		blobFrame([]int32{32, 32, 4}, 15, 17, 6),
	}
	b[0].ID, b[1].ID=0, 1

	res, err:=Align(b, ModeNone, frame.DomainFloat, 2, nil)
	if err!=nil { t.Fatalf("Align: %s", err.Error()) }
	if len(res)!=len(b) { t.Fatalf("len=%d; want %d", len(res), len(b)) }
	for i:=range(b) {
		if !equalData(res[i], b[i]) { t.Errorf("frame %d not an exact copy", i) }
		if res[i]==b[i] { t.Errorf("frame %d aliases the input", i) }
	}
}

func TestAlignReferencePassesThroughExactly(t *testing.T) {
	b:=frame.Burst{
		blobFrame([]int32{48, 48, 3}, 20, 26, 8),
		blobFrame([]int32{48, 48, 3}, 21, 25, 8),
		blobFrame([]int32{48, 48, 3}, 19, 27, 8),
	}
	for i,f:=range(b) { f.ID=i }

	for _,mode:=range([]Mode{ModeNone, ModeWholeFrame, ModePerChannel}) {
		res, err:=Align(b, mode, frame.Domain8Bit, 4, nil)
		if err!=nil { t.Fatalf("Align %s: %s", mode.String(), err.Error()) }
		if !equalData(res[0], b[0]) { t.Errorf("%s: reference frame not bit-exact", mode.String()) }
	}
}

func TestAlignIdenticalBurstWholeFrame(t *testing.T) {
	ref:=blobFrame([]int32{48, 48, 3}, 20, 26, 8)
	b:=frame.Burst{ref, ref.Clone(), ref.Clone()}
	for i,f:=range(b) { f.ID=i }

	res, err:=Align(b, ModeWholeFrame, frame.DomainFloat, 4, nil)
	if err!=nil { t.Fatalf("Align: %s", err.Error()) }

	// identical frames register as identity; interior pixels survive the warp
	width:=ref.Width()
	for i:=1; i<len(res); i++ {
		if !frame.EqualInt32Slice(res[i].Naxisn, ref.Naxisn) { t.Fatalf("frame %d naxisn=%v; want %v", i, res[i].Naxisn, ref.Naxisn) }
		for c:=int32(0); c<3; c++ {
			have, want:=res[i].Chan(c), ref.Chan(c)
			for y:=int32(1); y<ref.Height()-1; y++ {
				for x:=int32(1); x<width-1; x++ {
					d:=have[y*width+x]-want[y*width+x]
					if d>0.02 || -d>0.02 {
						t.Fatalf("frame %d chan %d (%d,%d)=%f; want %f", i, c, y, x, have[y*width+x], want[y*width+x])
					}
				}
			}
		}
	}
}

func TestAlignFallbackOnFlatFrame(t *testing.T) {
	ref:=blobFrame([]int32{48, 48, 3}, 20, 26, 8)
	flat:=frame.NewFrameFromNaxisn([]int32{48, 48, 3}, nil)
	for i:=range(flat.Data) { flat.Data[i]=0.5 }
	b:=frame.Burst{ref, flat}
	for i,f:=range(b) { f.ID=i }

	res, err:=Align(b, ModeWholeFrame, frame.Domain8Bit, 2, nil)
	if err!=nil { t.Fatalf("Align: %s", err.Error()) }

	// a flat frame cannot register and must downgrade to the reference copy
	if !equalData(res[1], ref) { t.Errorf("failed frame is not an exact reference copy") }
	if res[1].ID!=1 { t.Errorf("fallback frame ID=%d; want 1", res[1].ID) }
}

func TestAlignPerChannelPartialFallback(t *testing.T) {
	ref:=blobFrame([]int32{40, 40, 4}, 17, 21, 7)
	mov:=ref.Clone()
	// kill channel 2 of the moving frame: no variation, registration must fail
	for i:=range(mov.Chan(2)) { mov.Chan(2)[i]=0.25 }
	b:=frame.Burst{ref, mov}
	for i,f:=range(b) { f.ID=i }

	res, err:=Align(b, ModePerChannel, frame.DomainFloat, 4, nil)
	if err!=nil { t.Fatalf("Align: %s", err.Error()) }

	// failed channel copies the reference channel exactly
	haveC2, wantC2:=res[1].Chan(2), ref.Chan(2)
	for i:=range(wantC2) {
		if haveC2[i]!=wantC2[i] { t.Fatalf("chan 2 [%d]=%f; want %f", i, haveC2[i], wantC2[i]) }
	}

	// sibling channels still align, interior pixels survive
	width:=ref.Width()
	for _,c:=range([]int32{0, 1, 3}) {
		have, want:=res[1].Chan(c), ref.Chan(c)
		for y:=int32(1); y<ref.Height()-1; y++ {
			for x:=int32(1); x<width-1; x++ {
				d:=have[y*width+x]-want[y*width+x]
				if d>0.02 || -d>0.02 {
					t.Fatalf("chan %d (%d,%d)=%f; want %f", c, y, x, have[y*width+x], want[y*width+x])
				}
			}
		}
	}
}

func TestAlignRejectsMismatchedBurst(t *testing.T) {
	b:=frame.Burst{
		blobFrame([]int32{32, 32, 4}, 14, 16, 6),
		blobFrame([]int32{16, 16, 4}, 7, 8, 3),
	}
	if _, err:=Align(b, ModePerChannel, frame.DomainFloat, 2, nil); err==nil {
		t.Errorf("Align accepted a burst with mismatched frame shapes")
	}
}

func TestAlignWholeFrameWantsRGB(t *testing.T) {
	b:=frame.Burst{
		blobFrame([]int32{32, 32, 4}, 14, 16, 6),
		blobFrame([]int32{32, 32, 4}, 15, 17, 6),
	}
	if _, err:=Align(b, ModeWholeFrame, frame.Domain8Bit, 2, nil); err==nil {
		t.Errorf("whole-frame alignment accepted a 4-channel burst")
	}
}
