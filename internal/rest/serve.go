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


package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mvoggel/rawburst/internal/pipeline"
)

// A preview server over a fixed frame source. Every request builds a fresh
// record through the pipeline, nothing is cached between calls.
type Server struct {
	Source pipeline.Source
	Ctx    *pipeline.Context
}

func Serve(src pipeline.Source, ctx *pipeline.Context) error {
	s:=&Server{Source: src, Ctx: ctx}
	r:=gin.Default()
	api:=r.Group("/api")
	{
		v1:=api.Group("/v1")
		{
			v1.GET ("/ping",     getPing)
			v1.GET ("/presets",  s.getPresets)
			v1.POST("/generate", s.postGenerate)
			v1.GET ("/preview/:preset/:index", s.getPreview)
		}
	}
	return r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func (s *Server) getPresets(c *gin.Context) {
	c.JSON(200, gin.H{"presets": pipeline.PresetNames()})
}

type generateArgs struct {
	Preset string `json:"preset"`
	Index  int    `json:"index"`
	Seed   uint64 `json:"seed"`
}

// Runs the configured pipeline once and returns record shapes and metadata
func (s *Server) postGenerate(c *gin.Context) {
	var args generateArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, ok:=pipeline.Presets()[args.Preset]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset " + args.Preset})
		return
	}
	cfg.Seed=args.Seed

	p, err:=pipeline.New(cfg, s.Source, s.Ctx)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err:=p.Get(args.Index)
	if err!=nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp:=gin.H{
		"burstSize":  len(rec.Burst),
		"burstShape": rec.Burst[0].Naxisn,
		"gtShape":    rec.GroundTruth.Naxisn,
	}
	if rec.RGBBurst!=nil  { resp["rgbBurstShape"]=rec.RGBBurst[0].Naxisn }
	if rec.Flow!=nil      { resp["flowShape"]=rec.Flow[0].Naxisn }
	if rec.Flat!=nil      { resp["flatShape"]=rec.Flat[0].Naxisn }
	if rec.BaseFrame!=nil { resp["baseFrameShape"]=rec.BaseFrame.Naxisn }
	if rec.Meta!=nil      { resp["metaInfo"]=rec.Meta }
	c.JSON(200, resp)
}

// Streams an sRGB PNG preview of a freshly generated record. Prefers the
// demosaicked base frame, falls back to the ground truth.
func (s *Server) getPreview(c *gin.Context) {
	cfg, ok:=pipeline.Presets()[c.Param("preset")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset " + c.Param("preset")})
		return
	}
	index, err:=strconv.Atoi(c.Param("index"))
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err:=pipeline.New(cfg, s.Source, s.Ctx)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err:=p.Get(index)
	if err!=nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	preview:=rec.BaseFrame
	if preview==nil { preview=rec.GroundTruth }

	c.Status(http.StatusOK)
	c.Header("Content-Type", "image/png")
	if err:=preview.WritePNGPreview(c.Writer); err!=nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
