// Package render is the raster backend for dial surfaces.
//
// A Renderer keeps a flat list of layers (arcs and one indicator), runs
// property animations against a clock, and rasterizes a frame on demand with
// github.com/gogpu/gg. Animation objects are fire-and-forget: a new animation
// on the same layer and property replaces the running one.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"potbrainz/dial"
)

// ErrUnknownLayer is returned for a handle the renderer does not own (for
// example one issued before the last Reset).
var ErrUnknownLayer = errors.New("render: unknown layer")

type layerKind int

const (
	kindArc layerKind = iota
	kindIndicator
)

type layer struct {
	kind      layerKind
	arc       dial.ArcSpec
	indicator dial.IndicatorSpec

	// model holds the value a property settles on once its animation completes.
	model map[dial.Property]float64
	anims map[dial.Property]*running
}

type running struct {
	anim  dial.Animation
	begin time.Time
}

// Renderer implements dial.Renderer. It is safe for concurrent use: the
// owning loop issues draw/animate calls while HTTP handlers read frames.
type Renderer struct {
	mu sync.Mutex

	width  int
	height int

	background color.Color
	labelColor color.Color
	label      string

	layers map[dial.LayerHandle]*layer
	order  []dial.LayerHandle
	next   dial.LayerHandle

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBackground sets the frame background color.
func WithBackground(c color.Color) Option {
	return func(r *Renderer) { r.background = c }
}

// WithLabelColor sets the color of the value label.
func WithLabelColor(c color.Color) Option {
	return func(r *Renderer) { r.labelColor = c }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLogger sets the logger. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a renderer for frames of width x height pixels.
func New(width, height int, opts ...Option) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid frame size %dx%d", width, height)
	}
	r := &Renderer{
		width:      width,
		height:     height,
		background: color.NRGBA{R: 0x16, G: 0x18, B: 0x1d, A: 0xff},
		labelColor: color.NRGBA{R: 0xd0, G: 0xd4, B: 0xdc, A: 0xff},
		layers:     make(map[dial.LayerHandle]*layer),
		now:        time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resize changes the frame size. Existing layers are kept; callers normally
// follow with a scene rebuild.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid frame size %dx%d", width, height)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	return nil
}

// Size returns the frame size.
func (r *Renderer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// SetLabel sets the text drawn under the dial. Empty disables it.
func (r *Renderer) SetLabel(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label = text
}

// Reset discards every layer and running animation.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers = make(map[dial.LayerHandle]*layer)
	r.order = r.order[:0]
}

// DrawArc adds an arc layer.
func (r *Renderer) DrawArc(spec dial.ArcSpec) dial.LayerHandle {
	return r.add(&layer{
		kind: kindArc,
		arc:  spec,
		model: map[dial.Property]float64{
			dial.StrokeStart: spec.StrokeStart,
			dial.StrokeEnd:   spec.StrokeEnd,
		},
	})
}

// DrawIndicator adds the indicator layer.
func (r *Renderer) DrawIndicator(spec dial.IndicatorSpec) dial.LayerHandle {
	return r.add(&layer{
		kind:      kindIndicator,
		indicator: spec,
		model: map[dial.Property]float64{
			dial.Rotation: spec.Rotation,
		},
	})
}

func (r *Renderer) add(l *layer) dial.LayerHandle {
	l.anims = make(map[dial.Property]*running)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.layers[h] = l
	r.order = append(r.order, h)
	return h
}

// Animate starts an animation, replacing any running one on the same property.
// Unknown handles are logged and ignored.
func (r *Renderer) Animate(h dial.LayerHandle, a dial.Animation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.layers[h]
	if !ok {
		r.logger.Warn("animate dropped", "error", ErrUnknownLayer, "layer", uint64(h), "property", a.Property.String())
		return
	}
	if len(a.Values) > 0 && len(a.KeyTimes) != len(a.Values) {
		r.logger.Warn("keyframe count mismatch, spacing key-times evenly",
			"values", len(a.Values), "key_times", len(a.KeyTimes))
		a.KeyTimes = evenKeyTimes(len(a.Values))
	}

	if a.RetainEndValue {
		l.model[a.Property] = a.Final()
	}
	l.anims[a.Property] = &running{anim: a, begin: r.now()}
}

// Presentation returns the on-screen value of a layer property at time at.
func (r *Renderer) Presentation(h dial.LayerHandle, p dial.Property, at time.Time) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.layers[h]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownLayer, uint64(h))
	}
	return l.presentation(p, at), nil
}

// Animating reports whether any animation is still running at time at.
func (r *Renderer) Animating(at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.layers {
		for _, run := range l.anims {
			if _, done := Sample(run.anim, at.Sub(run.begin)); !done {
				return true
			}
		}
	}
	return false
}

// Layers returns the number of live layers.
func (r *Renderer) Layers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (l *layer) presentation(p dial.Property, at time.Time) float64 {
	run, ok := l.anims[p]
	if !ok {
		return l.model[p]
	}
	v, done := Sample(run.anim, at.Sub(run.begin))
	if !done {
		return v
	}
	// Settled: retained animations already wrote their final value into the model.
	delete(l.anims, p)
	return l.model[p]
}

// Sample evaluates an animation after elapsed time. done is true once the
// animation has reached its end; value is then the final value.
func Sample(a dial.Animation, elapsed time.Duration) (value float64, done bool) {
	if a.Duration <= 0 || elapsed >= a.Duration {
		return a.Final(), true
	}
	t := 0.0
	if elapsed > 0 {
		t = float64(elapsed) / float64(a.Duration)
	}
	p := a.Easing.Apply(t)
	if len(a.Values) == 0 {
		return lerp(a.From, a.To, p), false
	}
	return keyframe(a.Values, a.KeyTimes, p), false
}

func keyframe(values, keyTimes []float64, p float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	if len(keyTimes) != len(values) {
		keyTimes = evenKeyTimes(len(values))
	}
	for i := 1; i < len(values); i++ {
		if p > keyTimes[i] && i < len(values)-1 {
			continue
		}
		span := keyTimes[i] - keyTimes[i-1]
		if span <= 0 {
			return values[i]
		}
		local := math.Max(0, math.Min(1, (p-keyTimes[i-1])/span))
		return lerp(values[i-1], values[i], local)
	}
	return values[len(values)-1]
}

func evenKeyTimes(n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		return out
	}
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// ============================================================================
// Rasterization
// ============================================================================

// Frame rasterizes every layer at time at.
func (r *Renderer) Frame(at time.Time) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(r.width, r.height)
	defer dc.Close()

	dc.ClearWithColor(gg.FromColor(r.background))

	for _, h := range r.order {
		l := r.layers[h]
		switch l.kind {
		case kindArc:
			r.strokeArc(dc, l, at)
		case kindIndicator:
			r.strokeIndicator(dc, l, at)
		}
	}

	if err := dc.FlushGPU(); err != nil {
		r.logger.Warn("flush failed", "error", err)
	}
	img := dc.Image()
	if r.label == "" {
		return img
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	r.drawLabel(rgba)
	return rgba
}

func (r *Renderer) strokeArc(dc *gg.Context, l *layer, at time.Time) {
	start := clamp01(l.presentation(dial.StrokeStart, at))
	end := clamp01(l.presentation(dial.StrokeEnd, at))
	if end <= start {
		return
	}

	spec := l.arc
	g := spec.Geometry
	lineCap := gg.LineCapButt
	if spec.RoundCap {
		lineCap = gg.LineCapRound
	}

	dc.ClearPath()
	dc.SetColor(spec.Color)
	dc.SetLineWidth(spec.Width)
	dc.SetLineCap(lineCap)
	dc.DrawArc(g.CenterX, g.CenterY, g.Radius, g.AngleAt(start), g.AngleAt(end))
	if err := dc.Stroke(); err != nil {
		r.logger.Warn("stroke arc failed", "segment", spec.Segment.String(), "error", err)
	}
}

func (r *Renderer) strokeIndicator(dc *gg.Context, l *layer, at time.Time) {
	spec := l.indicator
	g := spec.Geometry
	angle := dial.IndicatorRestAngle + l.presentation(dial.Rotation, at)

	dc.Push()
	defer dc.Pop()

	dc.ClearPath()
	dc.RotateAbout(angle, g.CenterX, g.CenterY)
	dc.SetColor(spec.Color)
	dc.SetLineWidth(spec.Width)
	dc.SetLineCap(gg.LineCapRound)
	dc.DrawLine(g.CenterX+spec.Inner, g.CenterY, g.CenterX+spec.Outer, g.CenterY)
	if err := dc.Stroke(); err != nil {
		r.logger.Warn("stroke indicator failed", "error", err)
	}
}

// drawLabel centers the label in the track opening at the bottom of the frame.
func (r *Renderer) drawLabel(dst *image.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.labelColor),
		Face: face,
	}
	w := d.MeasureString(r.label).Ceil()
	x := (r.width - w) / 2
	y := r.height - face.Descent - 4
	d.Dot = fixed.P(x, y)
	d.DrawString(r.label)
}

// WritePNG encodes the frame at time at as PNG.
func (r *Renderer) WritePNG(w io.Writer, at time.Time) error {
	if err := png.Encode(w, r.Frame(at)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

var _ dial.Renderer = (*Renderer)(nil)
