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
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"
)

// Write a 3-channel frame to 16-bit TIFF
func (f *Frame) WriteTIFF16ToFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteTIFF16(writer)
}

// Write a 3-channel frame to 16-bit TIFF
func (f *Frame) WriteTIFF16(writer io.Writer) error {
	if f.Channels() != 3 {
		return fmt.Errorf("cannot write %d channels as RGB TIFF", f.Channels())
	}
	// convert samples into a Golang image
	width, height := int(f.Width()), int(f.Height())
	size := width * height
	img := image.NewRGBA64(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			r := clampUnit(f.Data[yoffset+x])
			g := clampUnit(f.Data[yoffset+x+size])
			b := clampUnit(f.Data[yoffset+x+size*2])
			c := color.RGBA64{uint16(r * 65535), uint16(g * 65535), uint16(b * 65535), 65535}
			img.SetRGBA64(x, y, c)
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// Write a single-plane frame to 16-bit grayscale TIFF
func (f *Frame) WriteMonoTIFF16ToFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteMonoTIFF16(writer)
}

// Write a single-plane frame to 16-bit grayscale TIFF
func (f *Frame) WriteMonoTIFF16(writer io.Writer) error {
	if f.Channels() != 1 {
		return fmt.Errorf("cannot write %d channels as grayscale TIFF", f.Channels())
	}
	width, height := int(f.Width()), int(f.Height())
	img := image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			gray := clampUnit(f.Data[yoffset+x])
			c := color.Gray16{uint16(gray * 65535)}
			img.SetGray16(x, y, c)
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// Write an 8-bit sRGB PNG preview of a 3-channel frame holding linear sensor
// space values. Applies the sRGB transfer curve per pixel.
func (f *Frame) WritePNGPreview(writer io.Writer) error {
	if f.Channels() != 3 {
		return fmt.Errorf("cannot write %d channels as RGB PNG", f.Channels())
	}
	width, height := int(f.Width()), int(f.Height())
	size := width * height
	img := image.NewRGBA(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			r := clampUnit(f.Data[yoffset+x])
			g := clampUnit(f.Data[yoffset+x+size])
			b := clampUnit(f.Data[yoffset+x+size*2])
			c := colorful.LinearRgb(float64(r), float64(g), float64(b)).Clamped()
			cr, cg, cb := c.RGB255()
			img.SetRGBA(x, y, color.RGBA{cr, cg, cb, 255})
		}
	}
	return png.Encode(writer, img)
}

// replace NaNs with zeros for export, else TIFF output breaks
func clampUnit(v float32) float32 {
	if math.IsNaN(float64(v)) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
