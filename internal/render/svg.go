package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Frame is a scene plus the view and captions it is drawn with.
type Frame struct {
	Scene   *Scene
	View    ViewState
	Day     time.Time
	Station string // home callsign for the legend; may be empty
}

const geometryErrorText = "Error loading map data. Please try again."

// WriteSVG draws f as a standalone SVG document: background geography, then
// a line and two markers per segment inside the viewport transform, then the
// screen-space overlays (geometry error, legend, tooltip).
func WriteSVG(w io.Writer, f Frame, opts Options) error {
	if f.Scene == nil {
		return fmt.Errorf("write svg: nil scene")
	}
	s := f.Scene
	c := opts.Colors

	var svg strings.Builder
	fmt.Fprintf(&svg, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.legend-text { font-family: %s; font-size: %dpx; fill: %s; }
.tooltip-text { font-family: %s; font-size: %dpx; fill: %s; }
.tooltip-title { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }
</style>
</defs>
`, s.Width, s.Height, s.Width, s.Height, c.Background,
		opts.Font.Family, opts.Font.Size, c.Text,
		opts.Font.Family, opts.Font.Size-1, c.Text,
		opts.Font.Family, opts.Font.Size+1, c.Text)

	fmt.Fprintf(&svg, `<g class="viewport" transform="translate(%s,%s) scale(%s)">`+"\n",
		num(f.View.Pan.X), num(f.View.Pan.Y), num(f.View.Zoom))

	svg.WriteString(`<g class="land">` + "\n")
	for _, shape := range s.Land {
		drawLand(&svg, shape, opts)
	}
	svg.WriteString("</g>\n")

	for i, seg := range s.Segments {
		drawConnection(&svg, seg, i == f.View.Hover, opts)
	}
	svg.WriteString("</g>\n")

	if s.GeometryErr != nil {
		fmt.Fprintf(&svg, `<text x="%d" y="%d" text-anchor="middle" class="legend-text" style="fill:%s">%s</text>`+"\n",
			s.Width/2, s.Height/2, c.Error, escapeXML(geometryErrorText))
	}

	drawLegend(&svg, f, opts)

	if f.View.Hover >= 0 && f.View.Hover < len(s.Segments) {
		drawTooltip(&svg, TooltipLines(s.Segments[f.View.Hover].Record()), f.View.Pointer, s.Width, s.Height, opts)
	}

	svg.WriteString("</svg>\n")

	if _, err := io.WriteString(w, svg.String()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func drawLand(svg *strings.Builder, shape LandShape, opts Options) {
	svg.WriteString(`<path d="`)
	for _, ring := range shape.Rings {
		for i, p := range ring {
			if i == 0 {
				svg.WriteString("M")
			} else {
				svg.WriteString("L")
			}
			svg.WriteString(num(p.X))
			svg.WriteString(",")
			svg.WriteString(num(p.Y))
		}
		svg.WriteString("Z")
	}
	fmt.Fprintf(svg, `" fill="%s" fill-rule="evenodd" stroke="%s" stroke-width="0.5"`, opts.Colors.Land, opts.Colors.Border)
	if shape.Name != "" {
		fmt.Fprintf(svg, `><title>%s</title></path>`+"\n", escapeXML(shape.Name))
		return
	}
	svg.WriteString("/>\n")
}

func drawConnection(svg *strings.Builder, seg Segment, hovered bool, opts Options) {
	stroke, width := opts.Colors.Line, opts.LineWidth
	if hovered {
		stroke, width = opts.Colors.Highlight, opts.LineWidth*2
	}
	fmt.Fprintf(svg, `<g class="qso"><title>%s</title>`, escapeXML(seg.Record().Call()))
	fmt.Fprintf(svg, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round"/>`,
		num(seg.From.X), num(seg.From.Y), num(seg.To.X), num(seg.To.Y), stroke, num(width))
	drawMarker(svg, seg.From, opts.Colors.Home, opts)
	drawMarker(svg, seg.To, opts.Colors.Contacted, opts)
	svg.WriteString("</g>\n")
}

func drawMarker(svg *strings.Builder, p Point, fill string, opts Options) {
	fmt.Fprintf(svg, `<circle cx="%s" cy="%s" r="%s" fill="%s" stroke="%s" stroke-width="1"/>`,
		num(p.X), num(p.Y), num(opts.MarkerRadius), fill, opts.Colors.Marker)
}

func drawLegend(svg *strings.Builder, f Frame, opts Options) {
	lines := make([]string, 0, 4)
	if f.Station != "" {
		lines = append(lines, "Station: "+f.Station)
	}
	if !f.Day.IsZero() {
		lines = append(lines, f.Day.Format("Jan 2, 2006"))
	}
	lines = append(lines,
		fmt.Sprintf("%d QSOs", len(f.Scene.Segments)),
		fmt.Sprintf("Zoom: %d%%", f.View.ZoomPercent()),
	)

	lineHeight := opts.Font.Size + 4
	for i, line := range lines {
		fmt.Fprintf(svg, `<text x="10" y="%d" class="legend-text">%s</text>`+"\n", 10+lineHeight*(i+1), escapeXML(line))
	}
}

func drawTooltip(svg *strings.Builder, lines []string, at Point, width, height int, opts Options) {
	lineHeight := float64(opts.Font.Size + 3)
	boxW := 0.0
	for _, l := range lines {
		boxW = max(boxW, estimateTextWidth(l, opts.Font.Size))
	}
	boxW += 16
	boxH := lineHeight*float64(len(lines)) + 10

	// Above the pointer, centred, then pulled back inside the canvas.
	x := at.X - boxW/2
	y := at.Y - boxH - 8
	x = clampFloat(x, 0, float64(width)-boxW)
	y = clampFloat(y, 0, float64(height)-boxH)

	fmt.Fprintf(svg, `<g class="tooltip"><rect x="%s" y="%s" width="%s" height="%s" rx="4" fill="%s" stroke="%s"/>`,
		num(x), num(y), num(boxW), num(boxH), opts.Colors.Tooltip, opts.Colors.Border)
	for i, l := range lines {
		class := "tooltip-text"
		if i == 0 {
			class = "tooltip-title"
		}
		fmt.Fprintf(svg, `<text x="%s" y="%s" class="%s">%s</text>`,
			num(x+8), num(y+5+lineHeight*float64(i+1)-3), class, escapeXML(l))
	}
	svg.WriteString("</g>\n")
}

// estimateTextWidth assumes an average glyph is 0.6 of the font size.
func estimateTextWidth(text string, fontSize int) float64 {
	return float64(len([]rune(text))) * float64(fontSize) * 0.6
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return max(lo, min(hi, v))
}

// num prints v with at most two decimals, which is sub-pixel at any zoom.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// escapeXML makes s safe as character data. Record fields can carry control
// bytes or invalid UTF-8; those become U+FFFD so the frame stays well-formed.
func escapeXML(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s)) //nolint:errcheck // strings.Builder never fails
	return b.String()
}
