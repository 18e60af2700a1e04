package svg

import (
	"fmt"
	"math"
	"strings"

	"koafrail/domain/risk"
)

// Colors match the convention used throughout the app: red pushes risk up,
// blue pulls it down.
const (
	RiseColor = "#FF0D57"
	DropColor = "#1E88E5"
)

// ForcePlot renders a prediction's additive decomposition as an SVG band.
// Risk-raising segments push in from the left and risk-lowering segments
// from the right, meeting at the model output f(x). The baseline gets its
// own tick so the reader can see how far the patient moved it.
type ForcePlot struct {
	Width  int
	Height int
}

// NewForcePlot returns a plot sized for the result page
func NewForcePlot() *ForcePlot {
	return &ForcePlot{Width: 900, Height: 210}
}

// Render produces standalone SVG markup for the prediction
func (p *ForcePlot) Render(pred risk.Prediction) string {
	const (
		marginL = 30.0
		marginR = 30.0
		bandTop = 70.0
		bandBot = 104.0
		axisY   = 122.0
		labelY  = 158.0
	)
	bandMid := (bandTop + bandBot) / 2
	plotW := float64(p.Width) - marginL - marginR

	rising := pred.Rising()
	falling := pred.Falling()

	var sumPos, sumNegAbs float64
	for _, a := range rising {
		sumPos += a.Contribution
	}
	for _, a := range falling {
		sumNegAbs += -a.Contribution
	}

	fx := pred.RawScore
	lo := math.Min(pred.Baseline, fx-sumPos)
	hi := math.Max(pred.Baseline, fx+sumNegAbs)
	if hi-lo < 1e-9 {
		lo, hi = pred.Baseline-0.1, pred.Baseline+0.1
	}
	pad := 0.06 * (hi - lo)
	lo -= pad
	hi += pad

	x := func(score float64) float64 {
		return marginL + (score-lo)/(hi-lo)*plotW
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-label="Force plot of feature contributions">`,
		p.Width, p.Height)
	b.WriteString("\n")

	// headline annotations
	fmt.Fprintf(&b, `<text x="%.1f" y="20" text-anchor="middle" font-size="16" font-weight="bold" fill="#222">SHAP Force Plot for Individual Prediction</text>`,
		float64(p.Width)/2)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<text x="%.1f" y="46" text-anchor="middle" font-size="13" font-weight="bold" fill="#222">f(x) = %.2f</text>`,
		x(fx), fx)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<text x="%.1f" y="62" text-anchor="middle" font-size="11" fill="#777">base value = %.2f</text>`,
		x(pred.Baseline), pred.Baseline)
	b.WriteString("\n")

	// risk-raising chevrons run from the left edge toward f(x), strongest
	// nearest the junction
	cursor := x(fx - sumPos)
	for i := len(rising) - 1; i >= 0; i-- {
		a := rising[i]
		w := a.Contribution / (hi - lo) * plotW
		b.WriteString(chevron(cursor, cursor+w, bandTop, bandBot, bandMid, true, RiseColor, a))
		cursor += w
	}

	// risk-lowering chevrons run from the right edge back toward f(x)
	cursor = x(fx + sumNegAbs)
	for i := len(falling) - 1; i >= 0; i-- {
		a := falling[i]
		w := -a.Contribution / (hi - lo) * plotW
		b.WriteString(chevron(cursor-w, cursor, bandTop, bandBot, bandMid, false, DropColor, a))
		cursor -= w
	}

	// baseline tick through the band
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#777" stroke-width="1" stroke-dasharray="3,2"/>`,
		x(pred.Baseline), bandTop-6, x(pred.Baseline), bandBot+6)
	b.WriteString("\n")

	// score axis with five evenly spaced ticks
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#bbb" stroke-width="1"/>`,
		marginL, axisY, marginL+plotW, axisY)
	b.WriteString("\n")
	for i := 0; i <= 4; i++ {
		score := lo + (hi-lo)*float64(i)/4
		tickX := x(score)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#bbb" stroke-width="1"/>`,
			tickX, axisY, tickX, axisY+4)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="10" fill="#888">%.2f</text>`,
			tickX, axisY+16, score)
		b.WriteString("\n")
	}

	// feature captions beneath segments wide enough to carry one
	const minLabelWidth = 46.0
	cursor = x(fx - sumPos)
	for i := len(rising) - 1; i >= 0; i-- {
		a := rising[i]
		w := a.Contribution / (hi - lo) * plotW
		if w >= minLabelWidth {
			fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="11" fill="%s">%s</text>`,
				cursor+w/2, labelY, RiseColor, escape(a.PlotLabel()))
			b.WriteString("\n")
		}
		cursor += w
	}
	cursor = x(fx + sumNegAbs)
	for i := len(falling) - 1; i >= 0; i-- {
		a := falling[i]
		w := -a.Contribution / (hi - lo) * plotW
		if w >= minLabelWidth {
			fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="11" fill="%s">%s</text>`,
				cursor-w/2, labelY, DropColor, escape(a.PlotLabel()))
			b.WriteString("\n")
		}
		cursor -= w
	}

	b.WriteString("</svg>")
	return b.String()
}

// chevron draws one contribution segment as an arrow pointing toward the
// junction, with a hover title carrying the exact value.
func chevron(x0, x1, top, bot, mid float64, pointsRight bool, color string, a risk.Attribution) string {
	tip := math.Min(8, (x1-x0)/2)
	var points string
	if pointsRight {
		points = fmt.Sprintf("%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f",
			x0, top, x1-tip, top, x1, mid, x1-tip, bot, x0, bot, x0+tip, mid)
	} else {
		points = fmt.Sprintf("%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f",
			x1, top, x0+tip, top, x0, mid, x0+tip, bot, x1, bot, x1-tip, mid)
	}
	return fmt.Sprintf(`<polygon points="%s" fill="%s" stroke="#fff" stroke-width="1"><title>%s: %+.4f</title></polygon>`,
		points, color, escape(a.PlotLabel()), a.Contribution) + "\n"
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
