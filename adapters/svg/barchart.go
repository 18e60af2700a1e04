package svg

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"koafrail/domain/risk"
)

// BarChart renders attributions as signed horizontal bars around a zero
// axis, strongest first. It backs the force plot with exact magnitudes.
type BarChart struct {
	Width int
	RowH  int
}

// NewBarChart returns a chart sized for the result page
func NewBarChart() *BarChart {
	return &BarChart{Width: 900, RowH: 26}
}

// Render produces standalone SVG markup for the prediction's attributions
func (c *BarChart) Render(pred risk.Prediction) string {
	rows := make([]risk.Attribution, len(pred.Attributions))
	copy(rows, pred.Attributions)
	sort.SliceStable(rows, func(i, j int) bool {
		return math.Abs(rows[i].Contribution) > math.Abs(rows[j].Contribution)
	})

	const (
		topPad   = 40.0
		labelX   = 160.0
		plotLeft = 180.0
	)
	plotRight := float64(c.Width) - 80
	zeroX := (plotLeft + plotRight) / 2
	halfSpan := (plotRight - plotLeft) / 2

	maxAbs := 0.0
	for _, a := range rows {
		if v := math.Abs(a.Contribution); v > maxAbs {
			maxAbs = v
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	height := topPad + float64(len(rows)*c.RowH) + 16

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %.0f" role="img" aria-label="Bar chart of feature contributions">`,
		c.Width, height)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<text x="%.1f" y="22" text-anchor="middle" font-size="14" font-weight="bold" fill="#222">Per-feature contributions to predicted risk</text>`,
		float64(c.Width)/2)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#ccc" stroke-width="1"/>`,
		zeroX, topPad-6, zeroX, height-10)
	b.WriteString("\n")

	for i, a := range rows {
		y := topPad + float64(i*c.RowH)
		barY := y + 4.0
		barH := float64(c.RowH) - 8
		textY := y + barH

		w := math.Abs(a.Contribution) / maxAbs * halfSpan
		color := DropColor
		barX := zeroX - w
		valueX := barX - 6
		anchor := "end"
		if a.Raises() {
			color = RiseColor
			barX = zeroX
			valueX = zeroX + w + 6
			anchor = "start"
		}
		if a.Contribution == 0 {
			color = "#999"
		}

		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="end" font-size="12" fill="#333">%s</text>`,
			labelX, textY, escape(a.PlotLabel()))
		b.WriteString("\n")
		if w > 0 {
			fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s"><title>%s: %+.4f</title></rect>`,
				barX, barY, w, barH, color, escape(a.Label), a.Contribution)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="%s" font-size="11" fill="%s">%+.3f</text>`,
			valueX, textY, anchor, color, a.Contribution)
		b.WriteString("\n")
	}

	b.WriteString("</svg>")
	return b.String()
}
