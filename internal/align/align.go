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
	"errors"
	"fmt"
	"io"

	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/reg"
)

// Alignment granularity. Whole-frame mode registers one transform per moving
// frame on a luma image and warps all channels with it. Per-channel mode
// registers and warps every mosaic channel independently, so a frame can end
// up partially aligned with the failed channels falling back to the reference.
type Mode int

const (
	ModeNone Mode = iota
	ModeWholeFrame
	ModePerChannel
)

func (m Mode) String() string {
	switch m {
	case ModeNone:       return "none"
	case ModeWholeFrame: return "wholeFrame"
	case ModePerChannel: return "perChannel"
	}
	return "unknown"
}

// Aligns all moving frames of a burst onto its reference frame. The reference
// frame is shared read-only across all units and passes through as an exact
// copy. Registration runs on data rescaled into the given fixed-point working
// domain, and aligned outputs are rescaled back and clamped to [0,1].
//
// Per-unit registration failures are terminal and silently downgrade to exact
// copies of the reference frame (or reference channel, in per-channel mode).
// The result always has the exact shape of the input.
//
// Units are mutually independent, so they fan out over up to maxThreads
// goroutines and join before the aligned burst is assembled.
func Align(b frame.Burst, mode Mode, domain frame.Domain, maxThreads int, logWriter io.Writer) (frame.Burst, error) {
	if err:=b.Validate(); err!=nil { return nil, err }
	if maxThreads<1 { maxThreads=1 }

	res:=make(frame.Burst, len(b))
	res[0]=b[0].Clone()
	if len(b)==1 { return res, nil }

	switch mode {
	case ModeNone:
		for i,f:=range(b[1:]) { res[i+1]=f.Clone() }
		return res, nil
	case ModeWholeFrame:
		if b[0].Channels()!=3 {
			return nil, fmt.Errorf("whole-frame alignment wants 3-channel frames, have %d", b[0].Channels())
		}
		alignWholeFrame(b, res, domain, maxThreads, logWriter)
		return res, nil
	case ModePerChannel:
		alignPerChannel(b, res, domain, maxThreads, logWriter)
		return res, nil
	}
	return nil, fmt.Errorf("unknown alignment mode %d", mode)
}

// Whole-frame mode: one registration per moving frame, on luma planes derived
// from the working-domain data; all channels warped with the single transform.
func alignWholeFrame(b, res frame.Burst, domain frame.Domain, maxThreads int, logWriter io.Writer) {
	ref:=b[0].ToDomain(domain)
	refLuma:=ref.Luma()

	limiter:=make(chan bool, maxThreads)
	for i:=1; i<len(b); i++ {
		limiter <- true
		go func(i int) {
			defer func() { <-limiter }()
			res[i]=alignOneFrame(b[0], b[i], refLuma, domain, logWriter)
		}(i)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
}

func alignOneFrame(ref, mov *frame.Frame, refLuma *frame.Frame, domain frame.Domain, logWriter io.Writer) *frame.Frame {
	movD:=mov.ToDomain(domain)
	movLuma:=movD.Luma()

	trans, rho, err:=reg.Register(refLuma.Data, movLuma.Data, refLuma.Width(), reg.DefaultIterations, reg.DefaultEpsilon)
	if err!=nil {
		if logWriter!=nil && !errors.Is(err, reg.ErrRegistrationFailed) {
			fmt.Fprintf(logWriter, "%d: unexpected registration error: %s\n", mov.ID, err.Error())
		}
		out:=ref.Clone() // fallback: exact copy of the reference frame
		out.ID=mov.ID
		return out
	}
	if logWriter!=nil {
		fmt.Fprintf(logWriter, "%d: aligned frame with rho=%.6f trans=%v\n", mov.ID, rho, trans)
	}

	out:=frame.NewFrameFromFrame(mov)
	for c:=int32(0); c<movD.Channels(); c++ {
		warped, err:=reg.Project(movD.Chan(c), movD.Width(), movD.Naxisn[:2], trans, 0)
		if err!=nil {
			out=ref.Clone()
			out.ID=mov.ID
			return out
		}
		copy(out.Chan(c), warped)
	}
	return out.ToFloat(domain)
}

// Per-channel mode: an independent registration and warp per (frame, channel)
// pair. A failed channel falls back to the reference channel while its
// siblings stay aligned; this partial alignment is deliberate.
func alignPerChannel(b, res frame.Burst, domain frame.Domain, maxThreads int, logWriter io.Writer) {
	chans:=b[0].Channels()
	refD:=b[0].ToDomain(domain)

	for i:=1; i<len(b); i++ {
		res[i]=frame.NewFrameFromFrame(b[i])
	}

	limiter:=make(chan bool, maxThreads)
	for i:=1; i<len(b); i++ {
		for c:=int32(0); c<chans; c++ {
			limiter <- true
			go func(i int, c int32) {
				defer func() { <-limiter }()
				alignOneChannel(b[0], b[i], res[i], refD, c, domain, logWriter)
			}(i, c)
		}
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
}

func alignOneChannel(ref, mov, out *frame.Frame, refD *frame.Frame, c int32, domain frame.Domain, logWriter io.Writer) {
	width:=ref.Width()
	movD:=make([]float32, len(mov.Chan(c)))
	for i,v:=range(mov.Chan(c)) {
		movD[i]=domain.FromFloat(v)
	}

	trans, rho, err:=reg.Register(refD.Chan(c), movD, width, reg.DefaultIterations, reg.DefaultEpsilon)
	if err!=nil {
		if logWriter!=nil && !errors.Is(err, reg.ErrRegistrationFailed) {
			fmt.Fprintf(logWriter, "%d/%d: unexpected registration error: %s\n", mov.ID, c, err.Error())
		}
		copy(out.Chan(c), ref.Chan(c)) // fallback: exact copy of the reference channel
		return
	}

	warped, err:=reg.Project(movD, width, ref.Naxisn[:2], trans, 0)
	if err!=nil {
		copy(out.Chan(c), ref.Chan(c))
		return
	}
	dest:=out.Chan(c)
	for i,v:=range(warped) {
		dest[i]=domain.ToFloat(v)
	}
	if logWriter!=nil {
		fmt.Fprintf(logWriter, "%d/%d: aligned channel with rho=%.6f\n", mov.ID, c, rho)
	}
}
