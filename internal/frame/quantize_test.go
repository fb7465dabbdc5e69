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

import (
	"testing"
)

func TestDomainFromFloat(t *testing.T) {
	cases:=[]struct{
		d    Domain
		v    float32
		want float32
	}{
		{DomainFloat,        0.5,       0.5  },
		{DomainFloat,       -0.25,      0    },
		{DomainFloat,        1.5,       1    },
		{Domain8Bit,         0,         0    },
		{Domain8Bit,         1,         255  },
		{Domain8Bit,         0.5,       127  },  // truncates, does not round
		{Domain8Bit,         2,         255  },
		{Domain14Bit,        1,         16383},
		{Domain14Bit,        0.25,      0.25*16383},
		{Domain14BitRounded, 0.5,       8192 },  // 8191.5 rounds up
		{Domain14BitRounded, 1,         16383},
	}
	for i,c:=range(cases) {
		if have:=c.d.FromFloat(c.v); have!=c.want {
			t.Errorf("case %d: %s.FromFloat(%f)=%f; want %f", i, c.d.String(), c.v, have, c.want)
		}
	}
}

func TestDomainToFloatClamps(t *testing.T) {
	if have:=Domain8Bit.ToFloat(255); have!=1 { t.Errorf("ToFloat(255)=%f; want 1", have) }
	if have:=Domain8Bit.ToFloat(300); have!=1 { t.Errorf("ToFloat(300)=%f; want 1", have) }
	if have:=Domain8Bit.ToFloat(-3); have!=0 { t.Errorf("ToFloat(-3)=%f; want 0", have) }
	if have:=Domain14Bit.ToFloat(16383); have!=1 { t.Errorf("ToFloat(16383)=%f; want 1", have) }
}

func TestDomainMonotone(t *testing.T) {
	for _,d:=range([]Domain{DomainFloat, Domain8Bit, Domain14Bit, Domain14BitRounded}) {
		prev:=d.FromFloat(0)
		for i:=1; i<=100; i++ {
			v:=d.FromFloat(float32(i)/100)
			if v<prev { t.Errorf("%s: FromFloat not monotone at %d: %f < %f", d.String(), i, v, prev) }
			prev=v
		}
	}
}

func TestFrameToDomainRoundTrip(t *testing.T) {
	f:=NewFrameFromNaxisn([]int32{4, 2}, []float32{0, 0.125, 0.25, 0.375, 0.5, 0.625, 0.75, 1})
	orig:=f.Clone()

	g:=f.ToDomain(Domain14Bit).ToFloat(Domain14Bit)
	for i:=range(orig.Data) {
		diff:=g.Data[i]-orig.Data[i]
		if diff< -1e-6 || diff>1e-6 { t.Errorf("data[%d]=%f; want %f", i, g.Data[i], orig.Data[i]) }
	}
	// source untouched by ToDomain
	for i:=range(orig.Data) {
		if f.Data[i]!=orig.Data[i] { t.Errorf("source data[%d] modified: %f", i, f.Data[i]) }
	}
}
