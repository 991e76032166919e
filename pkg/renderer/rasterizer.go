package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/mesh"
	"github.com/df07/go-atmosphere/pkg/shading"
)

// ErrNoFrame is returned when drawing outside BeginFrame/EndFrame
var ErrNoFrame = errors.New("renderer: no frame in progress")

// DrawCall draws one renderable with a model transform and shading state
type DrawCall struct {
	Renderable mesh.Renderable
	Model      mgl64.Mat4
	Technique  shading.Technique
	Cull       shading.CullFace
	Texture    material.ColorSource
	Program    shading.Program // Overrides the technique's program when set
}

// screenVertex is a vertex after perspective divide and viewport mapping.
// Varyings are premultiplied by invW for perspective-correct interpolation.
type screenVertex struct {
	x, y, z  float64
	invW     float64
	varyings shading.Varyings
}

type triangle struct {
	v       [3]screenVertex
	area    float64
	bounds  image.Rectangle
	program shading.Program
	texture material.ColorSource
}

// Rasterizer is a tile-parallel triangle rasterizer. Draw calls are
// transformed and binned on the caller's goroutine; tiles are shaded in
// parallel in EndFrame. Depth test is LESS with depth writes, CCW is front
// facing, and colours blend with source alpha.
type Rasterizer struct {
	registry *mesh.Registry
	config   Config
	logger   core.Logger

	tiles  []*Tile
	tilesX int
	pool   *WorkerPool
	frame  *Framebuffer

	inFrame   bool
	uniforms  shading.FrameUniforms
	bins      [][]*triangle
	stats     FrameStats
	startTime time.Time
}

// NewRasterizer creates a rasterizer and starts its workers
func NewRasterizer(registry *mesh.Registry, config Config, logger core.Logger) *Rasterizer {
	if config.TileSize <= 0 {
		config.TileSize = DefaultConfig().TileSize
	}

	r := &Rasterizer{
		registry: registry,
		config:   config,
		logger:   logger,
		tiles:    NewTileGrid(config.Width, config.Height, config.TileSize),
		tilesX:   (config.Width + config.TileSize - 1) / config.TileSize,
		frame:    NewFramebuffer(config.Width, config.Height),
	}
	r.bins = make([][]*triangle, len(r.tiles))
	r.pool = NewWorkerPool(len(r.tiles), config.NumWorkers, r.shadeTile)
	r.pool.Start()

	logger.Printf("Rasterizer ready: %dx%d, %d tiles, %d workers",
		config.Width, config.Height, len(r.tiles), r.pool.GetNumWorkers())
	return r
}

// Config returns the rasterizer configuration
func (r *Rasterizer) Config() Config {
	return r.config
}

// BeginFrame latches the frame uniforms and discards the previous draw list
func (r *Rasterizer) BeginFrame(u shading.FrameUniforms) {
	r.uniforms = u
	for i := range r.bins {
		r.bins[i] = r.bins[i][:0]
	}
	r.stats = FrameStats{}
	r.startTime = time.Now()
	r.inFrame = true
}

// Draw runs the vertex program over the renderable and bins the surviving
// triangles. Nothing is shaded until EndFrame.
func (r *Rasterizer) Draw(call DrawCall) error {
	if !r.inFrame {
		return ErrNoFrame
	}
	m, ok := r.registry.Get(call.Renderable.Handle)
	if !ok {
		return fmt.Errorf("renderer: unknown renderable %d", call.Renderable.Handle)
	}

	program := call.Program
	if program == nil {
		program = shading.ProgramFor(call.Technique)
	}

	// Shade every vertex once; the index buffer reuses them
	vertices := make([]clipVertex, len(m.Positions))
	for i := range m.Positions {
		in := shading.VertexInput{Position: m.Positions[i]}
		if i < len(m.Normals) {
			in.Normal = m.Normals[i]
		}
		if i < len(m.UVs) {
			in.UV = m.UVs[i]
		}
		vertices[i].pos, vertices[i].varyings = program.Vertex(in, call.Model, &r.uniforms)
	}

	r.stats.DrawCalls++
	indexCount := min(call.Renderable.IndexCount, len(m.Indices))
	for i := 0; i+2 < indexCount; i += 3 {
		tri := [3]clipVertex{vertices[m.Indices[i]], vertices[m.Indices[i+1]], vertices[m.Indices[i+2]]}
		r.stats.Triangles++
		r.assemble(tri, call.Cull, program, call.Texture)
	}
	return nil
}

// assemble clips, culls and bins one triangle
func (r *Rasterizer) assemble(tri [3]clipVertex, cull shading.CullFace, program shading.Program, texture material.ColorSource) {
	if outsideFrustum(tri) {
		r.stats.Clipped++
		return
	}
	poly := clipNear(tri)
	if len(poly) < 3 {
		r.stats.Clipped++
		return
	}

	screen := make([]screenVertex, len(poly))
	for i, cv := range poly {
		screen[i] = r.toScreen(cv)
	}

	for i := 1; i+1 < len(screen); i++ {
		t := &triangle{
			v:       [3]screenVertex{screen[0], screen[i], screen[i+1]},
			program: program,
			texture: texture,
		}
		// Screen y points down, so counter-clockwise in NDC has negative area here
		t.area = edge(t.v[0], t.v[1], t.v[2].x, t.v[2].y)
		frontFacing := t.area < 0
		if t.area == 0 || (cull == shading.CullBack && !frontFacing) || (cull == shading.CullFront && frontFacing) {
			r.stats.Culled++
			continue
		}
		if t.area < 0 {
			t.v[1], t.v[2] = t.v[2], t.v[1]
			t.area = -t.area
		}
		t.bounds = r.triangleBounds(t)
		if t.bounds.Empty() {
			r.stats.Clipped++
			continue
		}
		r.bin(t)
	}
}

func (r *Rasterizer) toScreen(cv clipVertex) screenVertex {
	invW := 1.0 / cv.pos.W()
	ndcX, ndcY, ndcZ := cv.pos.X()*invW, cv.pos.Y()*invW, cv.pos.Z()*invW
	return screenVertex{
		x:        (ndcX + 1) * 0.5 * float64(r.config.Width),
		y:        (1 - ndcY) * 0.5 * float64(r.config.Height),
		z:        (ndcZ + 1) * 0.5,
		invW:     invW,
		varyings: cv.varyings.Scale(invW),
	}
}

func (r *Rasterizer) triangleBounds(t *triangle) image.Rectangle {
	minX := math.Min(t.v[0].x, math.Min(t.v[1].x, t.v[2].x))
	maxX := math.Max(t.v[0].x, math.Max(t.v[1].x, t.v[2].x))
	minY := math.Min(t.v[0].y, math.Min(t.v[1].y, t.v[2].y))
	maxY := math.Max(t.v[0].y, math.Max(t.v[1].y, t.v[2].y))

	b := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	return b.Intersect(image.Rect(0, 0, r.config.Width, r.config.Height))
}

// bin appends t to every tile its bounds overlap
func (r *Rasterizer) bin(t *triangle) {
	size := r.config.TileSize
	for ty := t.bounds.Min.Y / size; ty <= (t.bounds.Max.Y-1)/size; ty++ {
		for tx := t.bounds.Min.X / size; tx <= (t.bounds.Max.X-1)/size; tx++ {
			id := ty*r.tilesX + tx
			r.bins[id] = append(r.bins[id], t)
		}
	}
}

// EndFrame shades all tiles in parallel and returns the finished image
func (r *Rasterizer) EndFrame() (*image.RGBA, FrameStats, error) {
	if !r.inFrame {
		return nil, FrameStats{}, ErrNoFrame
	}
	r.inFrame = false

	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	for i, tile := range r.tiles {
		r.pool.SubmitTask(TileTask{
			Tile:      tile,
			TaskID:    i,
			Triangles: r.bins[i],
			Target:    img,
			Frame:     r.frame,
		})
	}

	var err error
	for range r.tiles {
		result, ok := r.pool.GetResult()
		if !ok {
			return nil, r.stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil && err == nil {
			err = result.Error
		}
		r.stats.Fragments += result.Stats.Fragments
		r.stats.Blended += result.Stats.Blended
	}
	r.stats.Tiles = len(r.tiles)
	r.stats.Duration = time.Since(r.startTime)
	if err != nil {
		return nil, r.stats, err
	}
	return img, r.stats, nil
}

// Close stops the workers. The rasterizer cannot be used afterwards.
func (r *Rasterizer) Close() {
	r.pool.Stop()
}

// shadeTile is the worker body: clear, rasterize in submission order, resolve
func (r *Rasterizer) shadeTile(task TileTask) TileStats {
	var stats TileStats
	fb := task.Frame
	bounds := task.Tile.Bounds
	fb.ClearRect(bounds, r.config.Background)

	for _, t := range task.Triangles {
		area := t.bounds.Intersect(bounds)
		v0, v1, v2 := t.v[0], t.v[1], t.v[2]
		for y := area.Min.Y; y < area.Max.Y; y++ {
			py := float64(y) + 0.5
			for x := area.Min.X; x < area.Max.X; x++ {
				px := float64(x) + 0.5

				w0 := edge(v1, v2, px, py)
				w1 := edge(v2, v0, px, py)
				w2 := edge(v0, v1, px, py)
				if !covers(w0, v1, v2) || !covers(w1, v2, v0) || !covers(w2, v0, v1) {
					continue
				}
				b0, b1, b2 := w0/t.area, w1/t.area, w2/t.area

				z := b0*v0.z + b1*v1.z + b2*v2.z
				idx := y*fb.Width + x
				if z < 0 || z >= fb.Depth[idx] {
					continue
				}

				invW := b0*v0.invW + b1*v1.invW + b2*v2.invW
				varyings := v0.varyings.Scale(b0).Add(v1.varyings.Scale(b1)).Add(v2.varyings.Scale(b2)).Scale(1 / invW)

				color, alpha := t.program.Fragment(varyings, t.texture, &r.uniforms)
				stats.Fragments++
				if alpha < 1 {
					color = color.Multiply(alpha).Add(fb.Color[idx].Multiply(1 - alpha))
					stats.Blended++
				}
				fb.Color[idx] = color
				fb.Depth[idx] = z
			}
		}
	}

	fb.ResolveRect(bounds, task.Target)
	return stats
}

// edge is twice the signed area of (a, b, p)
func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// covers applies the top-left fill rule so pixels on a shared edge are
// shaded exactly once
func covers(w float64, a, b screenVertex) bool {
	if w > 0 {
		return true
	}
	if w < 0 {
		return false
	}
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}
