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


package frame

// A fixed-point working domain for registration and resampling.
// Registration is scale-sensitive, so each burst variant prescribes one.
type Domain int

const (
	DomainFloat     Domain = iota // normalized float [0,1], no rescaling
	Domain8Bit                    // [0,255], truncated to integers
	Domain14Bit                   // [0,16383], scaled without rounding
	Domain14BitRounded            // [0,16383], rounded to nearest integer
)

func (d Domain) String() string {
	switch d {
	case DomainFloat:        return "float"
	case Domain8Bit:         return "8bit"
	case Domain14Bit:        return "14bit"
	case Domain14BitRounded: return "14bitRounded"
	}
	return "unknown"
}

// Scale factor from normalized float into the domain
func (d Domain) Scale() float32 {
	switch d {
	case Domain8Bit:                      return 255
	case Domain14Bit, Domain14BitRounded: return 16383
	}
	return 1
}

// Rescales a normalized float sample into the domain's working range
func (d Domain) FromFloat(v float32) float32 {
	if v<0 { v=0 } else if v>1 { v=1 }
	switch d {
	case Domain8Bit:
		return float32(uint8(v*255))       // truncating, as byte image conversion does
	case Domain14Bit:
		return v*16383
	case Domain14BitRounded:
		return float32(uint16(v*16383+0.5))
	}
	return v
}

// Rescales a working-domain sample back into normalized float, clamping to [0,1]
func (d Domain) ToFloat(v float32) float32 {
	v/=d.Scale()
	if v<0 { v=0 } else if v>1 { v=1 }
	return v
}

// Returns a new frame with all samples rescaled into the domain's working range
func (f *Frame) ToDomain(d Domain) *Frame {
	res:=NewFrameFromFrame(f)
	for i,v:=range(f.Data) {
		res.Data[i]=d.FromFloat(v)
	}
	return res
}

// Rescales all samples from the domain's working range back into [0,1], in place
func (f *Frame) ToFloat(d Domain) *Frame {
	for i,v:=range(f.Data) {
		f.Data[i]=d.ToFloat(v)
	}
	return f
}
