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
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/tiff"

	"github.com/mvoggel/rawburst/internal/frame"
)

// A frame source backed by still image files on disk
type FileSource []string

// Globs the given filename patterns into a file source
func NewFileSource(patterns []string) (FileSource, error) {
	var names []string
	for _,pattern:=range(patterns) {
		matches, err:=filepath.Glob(pattern)
		if err!=nil { return nil, err }
		names=append(names, matches...)
	}
	if len(names)==0 {
		return nil, fmt.Errorf("no files match %v", patterns)
	}
	return FileSource(names), nil
}

func (s FileSource) Len() int { return len(s) }

// Decodes the index-th image file into a 3-channel float frame in [0,1]
func (s FileSource) Frame(index int) (*frame.Frame, error) {
	if index<0 || index>=len(s) {
		return nil, fmt.Errorf("index %d out of range, have %d files", index, len(s))
	}
	file, err:=os.Open(s[index])
	if err!=nil { return nil, err }
	defer file.Close()

	img, _, err:=image.Decode(file)
	if err!=nil { return nil, fmt.Errorf("%s: %s", s[index], err.Error()) }

	bounds:=img.Bounds()
	width, height:=int32(bounds.Dx()), int32(bounds.Dy())
	f:=frame.NewFrameFromNaxisn([]int32{width, height, 3}, nil)
	f.ID=index
	rs, gs, bs:=f.Chan(0), f.Chan(1), f.Chan(2)
	i:=0
	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			r, g, b, _:=img.At(x, y).RGBA()
			rs[i]=float32(r)/65535
			gs[i]=float32(g)/65535
			bs[i]=float32(b)/65535
			i++
		}
	}
	return f, nil
}
