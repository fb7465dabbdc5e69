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

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/mvoggel/rawburst/internal/align"
	"github.com/mvoggel/rawburst/internal/frame"
	"github.com/mvoggel/rawburst/internal/pipeline"
	"github.com/mvoggel/rawburst/internal/rest"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var preset    = flag.String("preset", "synthetic-raw", "pipeline preset, one of the names printed by the presets command")
var index     = flag.Int("index", 0, "index of the input image to generate a burst from")
var seed      = flag.Uint64("seed", 0, "pipeline seed, mixed with the sample index")

var burstSize = flag.Int("burstSize", 0, "override preset burst size, 0=keep preset value")
var cropSize  = flag.Int64("cropSize", 0, "override preset ground truth crop size, 0=keep preset value")
var factor    = flag.Int("factor", 0, "override preset downsample factor, 0=keep preset value")
var alignMode = flag.String("align", "", "override preset alignment mode, one of none|wholeFrame|perChannel")

var out     = flag.String("out", "", "save flattened raw burst mosaics with given filename pattern, e.g. `raw%02d.tiff`")
var rgbOut  = flag.String("rgbOut", "", "save low-resolution RGB burst frames with given filename pattern, e.g. `rgb%02d.tiff`")
var gtOut   = flag.String("gtOut", "", "save the border-cropped RGB ground truth to `file`")
var baseOut = flag.String("baseOut", "", "save an sRGB PNG preview of the demosaicked base frame to `file`")

func main() {
	logWriter:=os.Stdout
	start:=time.Now()
	flag.Usage=func() {
		fmt.Fprintf(logWriter, `Rawburst Copyright (c) 2023 Martin Voggel
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (generate|presets|serve|version) (img0.png ... imgn.png)

Commands:
  generate Synthesize one burst record from the input images and save the selected outputs
  presets  Show the available pipeline presets
  serve    Start the REST preview server on the input images
  version  Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Enable CPU profiling if flagged
	if *cpuprofile!="" {
		f, err:=os.Create(*cpuprofile)
		if err!=nil { fatalf("Could not create CPU profile: %s\n", err.Error()) }
		defer f.Close()
		if err:=pprof.StartCPUProfile(f); err!=nil {
			fatalf("Could not start CPU profile: %s\n", err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(logWriter, "rawburst version %s\n", version)
		return
	case "presets":
		for _,name:=range(pipeline.PresetNames()) {
			fmt.Fprintf(logWriter, "%s\n", name)
		}
		return
	case "generate", "serve":
		// fallthrough below
	default:
		flag.Usage()
		fatalf("Unknown command %s\n", args[0])
	}

	src, err:=pipeline.NewFileSource(args[1:])
	if err!=nil { fatalf("%s\n", err.Error()) }
	ctx:=pipeline.NewContext(logWriter)
	fmt.Fprintf(logWriter, "Using %d threads and up to %d MiB of memory on %d input images\n",
		ctx.MaxThreads, ctx.MemoryMB, src.Len())

	if args[0]=="serve" {
		if err:=rest.Serve(src, ctx); err!=nil {
			fatalf("Server error: %s\n", err.Error())
		}
		return
	}

	cfg, ok:=pipeline.Presets()[*preset]
	if !ok { fatalf("Unknown preset %s\n", *preset) }
	cfg.Seed=*seed
	if *burstSize>0 { cfg.BurstSize=*burstSize }
	if *cropSize>0  { cfg.CropSize=int32(*cropSize) }
	if *factor>0    { cfg.DownsampleFactor=*factor }
	switch *alignMode {
	case "":           // keep preset mode
	case "none":       cfg.Alignment=align.ModeNone
	case "wholeFrame": cfg.Alignment=align.ModeWholeFrame
	case "perChannel": cfg.Alignment=align.ModePerChannel
	default:           fatalf("Unknown alignment mode %s\n", *alignMode)
	}

	p, err:=pipeline.New(cfg, src, ctx)
	if err!=nil { fatalf("%s\n", err.Error()) }

	rec, err:=p.Get(*index)
	if err!=nil { fatalf("%s\n", err.Error()) }
	fmt.Fprintf(logWriter, "Generated %d-frame burst of %s with ground truth %s in %v\n",
		len(rec.Burst), rec.Burst[0].DimensionsToString(), rec.GroundTruth.DimensionsToString(),
		time.Since(start))

	if *out!="" {
		for i,f:=range(rec.Burst) {
			flat:=rec.Flat
			var mosaic *frame.Frame
			if flat!=nil {
				mosaic=flat[i]
			} else {
				if mosaic, err=frame.Flatten(f); err!=nil { fatalf("%s\n", err.Error()) }
			}
			name:=fmt.Sprintf(*out, i)
			if err:=mosaic.WriteMonoTIFF16ToFile(name); err!=nil { fatalf("%s\n", err.Error()) }
			fmt.Fprintf(logWriter, "Wrote raw mosaic %s\n", name)
		}
	}
	if *rgbOut!="" && rec.RGBBurst!=nil {
		for i,f:=range(rec.RGBBurst) {
			name:=fmt.Sprintf(*rgbOut, i)
			if err:=f.WriteTIFF16ToFile(name); err!=nil { fatalf("%s\n", err.Error()) }
			fmt.Fprintf(logWriter, "Wrote RGB frame %s\n", name)
		}
	}
	if *gtOut!="" {
		if err:=rec.GroundTruth.WriteTIFF16ToFile(*gtOut); err!=nil { fatalf("%s\n", err.Error()) }
		fmt.Fprintf(logWriter, "Wrote ground truth %s\n", *gtOut)
	}
	if *baseOut!="" && rec.BaseFrame!=nil {
		f, err:=os.Create(*baseOut)
		if err!=nil { fatalf("%s\n", err.Error()) }
		defer f.Close()
		if err:=rec.BaseFrame.WritePNGPreview(f); err!=nil { fatalf("%s\n", err.Error()) }
		fmt.Fprintf(logWriter, "Wrote base frame preview %s\n", *baseOut)
	}

	// Store memory profile if flagged
	if *memprofile!="" {
		f, err:=os.Create(*memprofile)
		if err!=nil { fatalf("Could not create memory profile: %s\n", err.Error()) }
		defer f.Close()
		if err:=pprof.WriteHeapProfile(f); err!=nil {
			fatalf("Could not write memory profile: %s\n", err.Error())
		}
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
