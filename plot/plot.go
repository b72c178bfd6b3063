// Package plot draws the analysis charts: delay per message, hop
// distribution, and temperature/humidity readings against their target
// bands, tiled into one PNG sheet.
package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"meshlog/mesh"
	"meshlog/stats"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Panel size of each chart on the sheet.
const (
	PanelWidth  = 900
	PanelHeight = 450
)

var (
	seriesColor = drawing.ColorFromHex("1f77b4")
	tempBound   = chart.ColorRed
	humBound    = chart.ColorBlue
)

// pointStyle draws a thin line with small markers.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 1.5,
		DotWidth:    2.5,
		DotColor:    col,
	}
}

func boundStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor:     col.WithAlpha(128),
		StrokeWidth:     1.5,
		StrokeDashArray: []float64{5, 5},
	}
}

// Render writes the 2x2 sheet for events as PNG.
func Render(w io.Writer, events []mesh.SensorEvent, hops stats.HopDistribution) error {
	if len(events) == 0 {
		return fmt.Errorf("plot: no events")
	}
	delays := make([]float64, len(events))
	temps := make([]float64, len(events))
	hums := make([]float64, len(events))
	for i, ev := range events {
		delays[i] = float64(ev.DelayMS)
		temps[i] = ev.Temperature
		hums[i] = ev.Humidity
	}

	panels := []struct {
		name   string
		render func(io.Writer) error
	}{
		{"latency", func(w io.Writer) error {
			return seriesChart("Network Latency Over Time", "Delay (ms)", delays, nil).Render(chart.PNG, w)
		}},
		{"hops", func(w io.Writer) error {
			return hopChart(hops).Render(chart.PNG, w)
		}},
		{"temperature", func(w io.Writer) error {
			return seriesChart("Temperature Readings", "Temperature (°C)", temps,
				&band{stats.TempMinC, stats.TempMaxC, tempBound}).Render(chart.PNG, w)
		}},
		{"humidity", func(w io.Writer) error {
			return seriesChart("Humidity Readings", "Humidity (%)", hums,
				&band{stats.HumidityMinPct, stats.HumidityMaxPct, humBound}).Render(chart.PNG, w)
		}},
	}

	sheet := image.NewRGBA(image.Rect(0, 0, 2*PanelWidth, 2*PanelHeight))
	draw.Draw(sheet, sheet.Bounds(), image.White, image.Point{}, draw.Src)
	for i, p := range panels {
		var buf bytes.Buffer
		if err := p.render(&buf); err != nil {
			return fmt.Errorf("plot: render %s: %w", p.name, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("plot: decode %s: %w", p.name, err)
		}
		origin := image.Pt((i%2)*PanelWidth, (i/2)*PanelHeight)
		draw.Draw(sheet, img.Bounds().Add(origin), img, img.Bounds().Min, draw.Over)
	}
	return png.Encode(w, sheet)
}

// WriteFile renders the sheet into path.
func WriteFile(path string, events []mesh.SensorEvent, hops stats.HopDistribution) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("plot: create dir: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := Render(&buf, events, hops); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("plot: write: %w", err)
	}
	return nil
}

type band struct {
	min, max float64
	color    drawing.Color
}

func seriesChart(title, yName string, ys []float64, b *band) chart.Chart {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	lo, hi := minMax(ys)
	series := []chart.Series{
		chart.ContinuousSeries{Name: yName, XValues: xs, YValues: ys, Style: pointStyle(seriesColor)},
	}
	xMax := float64(len(ys) - 1)
	if xMax < 1 {
		xMax = 1
	}
	if b != nil {
		lo = minF(lo, b.min)
		hi = maxF(hi, b.max)
		series = append(series,
			chart.ContinuousSeries{Name: "Min", XValues: []float64{0, xMax}, YValues: []float64{b.min, b.min}, Style: boundStyle(b.color)},
			chart.ContinuousSeries{Name: "Max", XValues: []float64{0, xMax}, YValues: []float64{b.max, b.max}, Style: boundStyle(b.color)},
		)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	ch := chart.Chart{
		Title:      title,
		Width:      PanelWidth,
		Height:     PanelHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Message #", Range: &chart.ContinuousRange{Min: 0, Max: xMax}},
		YAxis:      chart.YAxis{Name: yName, Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}},
		Series:     series,
	}
	if b != nil {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch
}

func hopChart(hops stats.HopDistribution) chart.BarChart {
	bars := make([]chart.Value, 0, len(hops.Buckets))
	slot := (PanelWidth - 120) / maxInt(len(hops.Buckets), 1)
	barWidth := minInt(40, slot/2)
	maxCount := 1.0
	for _, b := range hops.Buckets {
		bars = append(bars, chart.Value{Value: float64(b.Count), Label: strconv.Itoa(b.Hops)})
		maxCount = maxF(maxCount, float64(b.Count))
	}
	return chart.BarChart{
		Title:      "Hop Count Distribution",
		Width:      PanelWidth,
		Height:     PanelHeight,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: "Frequency", Range: &chart.ContinuousRange{Min: 0, Max: maxCount * 1.1}},
		Bars:       bars,
	}
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = minF(lo, v)
		hi = maxF(hi, v)
	}
	return lo, hi
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
