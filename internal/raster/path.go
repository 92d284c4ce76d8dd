package raster

import (
	"math"

	"golang.org/x/image/vector"
)

type opKind int

const (
	opMove opKind = iota
	opLine
	opCubic
	opClose
)

type pathOp struct {
	kind opKind
	pts  [3]point
}

type point struct {
	X, Y float64
}

// Path is a vector outline in surface coordinates.
type Path struct {
	ops     []pathOp
	start   point
	current point
	hasCur  bool
}

func (p *Path) MoveTo(x, y float64) {
	p.ops = append(p.ops, pathOp{kind: opMove, pts: [3]point{{x, y}}})
	p.start = point{x, y}
	p.current = p.start
	p.hasCur = true
}

func (p *Path) LineTo(x, y float64) {
	if !p.hasCur {
		p.MoveTo(x, y)
		return
	}
	p.ops = append(p.ops, pathOp{kind: opLine, pts: [3]point{{x, y}}})
	p.current = point{x, y}
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !p.hasCur {
		p.MoveTo(c1x, c1y)
	}
	p.ops = append(p.ops, pathOp{kind: opCubic, pts: [3]point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
	p.current = point{x, y}
}

func (p *Path) Close() {
	if !p.hasCur {
		return
	}
	p.ops = append(p.ops, pathOp{kind: opClose})
	p.current = p.start
}

func (p *Path) Empty() bool {
	return len(p.ops) == 0
}

// ArcTo adds a circular arc of radius r tangent to the line from the current
// point to (x1, y1) and to the line from (x1, y1) to (x2, y2). A straight line
// to (x1, y1) is added first when the current point is not on the arc.
func (p *Path) ArcTo(x1, y1, x2, y2, r float64) {
	if !p.hasCur {
		p.MoveTo(x1, y1)
	}
	p0, p1, p2 := p.current, point{x1, y1}, point{x2, y2}

	v1x, v1y := p0.X-p1.X, p0.Y-p1.Y
	v2x, v2y := p2.X-p1.X, p2.Y-p1.Y
	l1, l2 := math.Hypot(v1x, v1y), math.Hypot(v2x, v2y)
	if r <= 0 || l1 == 0 || l2 == 0 {
		p.LineTo(x1, y1)
		return
	}
	v1x, v1y = v1x/l1, v1y/l1
	v2x, v2y = v2x/l2, v2y/l2

	cross := v1x*v2y - v1y*v2x
	if math.Abs(cross) < 1e-9 {
		p.LineTo(x1, y1)
		return
	}

	theta := math.Acos(clamp(v1x*v2x+v1y*v2y, -1, 1))
	d := r / math.Tan(theta/2)
	t1 := point{p1.X + v1x*d, p1.Y + v1y*d}
	t2 := point{p1.X + v2x*d, p1.Y + v2y*d}

	bx, by := v1x+v2x, v1y+v2y
	bl := math.Hypot(bx, by)
	h := r / math.Sin(theta/2)
	c := point{p1.X + bx/bl*h, p1.Y + by/bl*h}

	p.LineTo(t1.X, t1.Y)

	a1 := math.Atan2(t1.Y-c.Y, t1.X-c.X)
	a2 := math.Atan2(t2.Y-c.Y, t2.X-c.X)
	sweep := a2 - a1
	for sweep > math.Pi {
		sweep -= 2 * math.Pi
	}
	for sweep <= -math.Pi {
		sweep += 2 * math.Pi
	}

	p.arc(c, r, a1, sweep)
}

// arc approximates the arc with cubic segments of at most 90 degrees each.
func (p *Path) arc(c point, r, start, sweep float64) {
	n := int(math.Ceil(math.Abs(sweep)/(math.Pi/2) - 1e-9))
	if n == 0 {
		return
	}
	step := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	a := start
	for i := 0; i < n; i++ {
		b := a + step
		sa, ca := math.Sincos(a)
		sb, cb := math.Sincos(b)
		p.CubicTo(
			c.X+r*(ca-k*sa), c.Y+r*(sa+k*ca),
			c.X+r*(cb+k*sb), c.Y+r*(sb-k*cb),
			c.X+r*cb, c.Y+r*sb,
		)
		a = b
	}
}

// ClampRadius limits r to half of the smaller side.
func ClampRadius(w, h, r float64) float64 {
	if w < 2*r {
		r = w / 2
	}
	if h < 2*r {
		r = h / 2
	}
	return r
}

// RoundRect returns a clockwise rounded rectangle path.
func RoundRect(x, y, w, h, r float64) *Path {
	r = ClampRadius(w, h, r)

	p := &Path{}
	p.MoveTo(x+r, y)
	p.ArcTo(x+w, y, x+w, y+h, r)
	p.ArcTo(x+w, y+h, x, y+h, r)
	p.ArcTo(x, y+h, x, y, r)
	p.ArcTo(x, y, x+w, y, r)
	p.Close()
	return p
}

// roundRectReversed is RoundRect wound counter-clockwise, used to cut holes.
func roundRectReversed(x, y, w, h, r float64) *Path {
	r = ClampRadius(w, h, r)

	p := &Path{}
	p.MoveTo(x+r, y)
	p.ArcTo(x, y, x, y+h, r)
	p.ArcTo(x, y+h, x+w, y+h, r)
	p.ArcTo(x+w, y+h, x+w, y, r)
	p.ArcTo(x+w, y, x, y, r)
	p.Close()
	return p
}

// Append adds the ops of q to p.
func (p *Path) Append(q *Path) {
	p.ops = append(p.ops, q.ops...)
	p.start, p.current, p.hasCur = q.start, q.current, q.hasCur
}

func (p *Path) rasterize(z *vector.Rasterizer) {
	for _, op := range p.ops {
		switch op.kind {
		case opMove:
			z.MoveTo(float32(op.pts[0].X), float32(op.pts[0].Y))
		case opLine:
			z.LineTo(float32(op.pts[0].X), float32(op.pts[0].Y))
		case opCubic:
			z.CubeTo(
				float32(op.pts[0].X), float32(op.pts[0].Y),
				float32(op.pts[1].X), float32(op.pts[1].Y),
				float32(op.pts[2].X), float32(op.pts[2].Y),
			)
		case opClose:
			z.ClosePath()
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
