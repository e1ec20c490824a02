// Package chart renders the five-category severity pie chart as an inline
// SVG document.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/CosmoTheDev/vulnbyhost/models"
)

// ErrDivisionByZeroTotal is returned when asked to size sectors for an
// all-zero count set.
var ErrDivisionByZeroTotal = errors.New("cannot compute pie sectors for a zero total")

const (
	// CanvasSize is the logical width and height of the document.
	CanvasSize = 200
	// CenterX, CenterY and Radius are in unit-square coordinates; the canvas
	// is scaled by CanvasSize once before drawing.
	CenterX = 0.5
	CenterY = 0.5
	Radius  = 0.49

	fullTurn = 360.0
	epsilon  = 1e-9
)

// Sector is one coloured slice, angles in degrees measured from the positive
// x axis in the canvas direction.
type Sector struct {
	Severity models.Severity
	Start    float64
	Sweep    float64
}

// End returns the angle the sector stops at.
func (s Sector) End() float64 {
	return s.Start + s.Sweep
}

// PercentOfCircle returns count's share of total expressed in degrees.
func PercentOfCircle(count, total int) (float64, error) {
	if total == 0 {
		return 0, ErrDivisionByZeroTotal
	}
	return float64(count) / float64(total) * fullTurn, nil
}

// Sectors lays the counts out in models.DrawOrder. Each sector starts where
// the previous one ended, beginning at 0 degrees.
func Sectors(counts models.Counts) ([]Sector, error) {
	total := counts.Total()
	out := make([]Sector, 0, models.NumSeverities)
	start := 0.0
	for _, sev := range models.DrawOrder {
		sweep, err := PercentOfCircle(counts[sev], total)
		if err != nil {
			return nil, err
		}
		out = append(out, Sector{Severity: sev, Start: start, Sweep: sweep})
		start += sweep
	}
	return out, nil
}

// RenderPie draws counts as a pie chart and returns the SVG markup, ready to
// be inlined into an HTML page.
func RenderPie(counts models.Counts) (string, error) {
	sectors, err := Sectors(counts)
	if err != nil {
		return "", err
	}
	return render(func(canvas *svg.SVG) {
		canvas.Path(discPath(), fillStyle("#000000"))
		for _, s := range sectors {
			canvas.Path(sectorPath(s), fillStyle(s.Severity.Color().Hex()))
		}
	}), nil
}

// Placeholder returns a neutral grey disc for scans with nothing to chart.
func Placeholder() string {
	return render(func(canvas *svg.SVG) {
		canvas.Path(discPath(), fillStyle("#000000"))
		canvas.Path(discPath(), fillStyle("#9e9e9e"))
	})
}

// render scopes one drawing surface to a single document.
func render(draw func(canvas *svg.SVG)) string {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(CanvasSize, CanvasSize, fmt.Sprintf(`viewBox="0 0 %d %d"`, CanvasSize, CanvasSize))
	canvas.Gtransform(fmt.Sprintf("scale(%d)", CanvasSize))
	draw(canvas)
	canvas.Gend()
	canvas.End()

	// Drop the XML prolog so the markup can sit inside an HTML body.
	out := buf.String()
	if i := strings.Index(out, "<svg"); i > 0 {
		out = out[i:]
	}
	return out
}

func fillStyle(hex string) string {
	return "fill:" + hex + ";fill-opacity:1;stroke:none"
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func pointAt(deg float64) (float64, float64) {
	rad := toRadians(deg)
	return CenterX + Radius*math.Cos(rad), CenterY + Radius*math.Sin(rad)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// arcTo appends an SVG elliptical-arc command ending at the given angle.
func arcTo(b *strings.Builder, sweep, endDeg float64) {
	large := 0
	if sweep > 180 {
		large = 1
	}
	x, y := pointAt(endDeg)
	fmt.Fprintf(b, " A %s %s 0 %d 1 %s %s", num(Radius), num(Radius), large, num(x), num(y))
}

// sectorPath builds centre -> arc start -> arc -> centre. A zero sweep yields
// a degenerate path with no visible fill. A full turn is split in two because
// an SVG arc whose endpoints coincide is not drawn.
func sectorPath(s Sector) string {
	var b strings.Builder
	x, y := pointAt(s.Start)
	fmt.Fprintf(&b, "M %s %s L %s %s", num(CenterX), num(CenterY), num(x), num(y))
	if s.Sweep >= fullTurn-epsilon {
		half := s.Sweep / 2
		arcTo(&b, half, s.Start+half)
		arcTo(&b, half, s.End())
	} else {
		arcTo(&b, s.Sweep, s.End())
	}
	b.WriteString(" Z")
	return b.String()
}

func discPath() string {
	return sectorPath(Sector{Start: 0, Sweep: fullTurn})
}
