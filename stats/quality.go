package stats

import "meshlog/mesh"

// Target growing conditions for basil.
const (
	TempMinC       = 18.0
	TempMaxC       = 25.0
	HumidityMinPct = 60.0
	HumidityMaxPct = 70.0
)

// Range summarizes one sensor reading across all events.
type Range struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Span float64 `json:"range"`
}

// Readings holds temperature and humidity ranges.
type Readings struct {
	Temperature Range `json:"temperature"`
	Humidity    Range `json:"humidity"`
}

// QualityWindows are fractions (0..1) of events inside the target bands,
// counted per report rather than weighted by time.
type QualityWindows struct {
	TemperatureOK float64 `json:"temperature_ok"`
	HumidityOK    float64 `json:"humidity_ok"`
	BothOK        float64 `json:"both_ok"`
}

// InTempWindow reports whether c lies in [TempMinC, TempMaxC].
func InTempWindow(c float64) bool {
	return c >= TempMinC && c <= TempMaxC
}

// InHumidityWindow reports whether pct lies in [HumidityMinPct, HumidityMaxPct].
func InHumidityWindow(pct float64) bool {
	return pct >= HumidityMinPct && pct <= HumidityMaxPct
}

func qualityOf(events []mesh.SensorEvent) QualityWindows {
	var tempOK, humOK, both int
	for _, ev := range events {
		t := InTempWindow(ev.Temperature)
		h := InHumidityWindow(ev.Humidity)
		if t {
			tempOK++
		}
		if h {
			humOK++
		}
		if t && h {
			both++
		}
	}
	n := float64(len(events))
	return QualityWindows{
		TemperatureOK: float64(tempOK) / n,
		HumidityOK:    float64(humOK) / n,
		BothOK:        float64(both) / n,
	}
}

func readingsOf(events []mesh.SensorEvent) Readings {
	temps := make([]float64, len(events))
	hums := make([]float64, len(events))
	for i, ev := range events {
		temps[i] = ev.Temperature
		hums[i] = ev.Humidity
	}
	return Readings{
		Temperature: rangeOf(temps),
		Humidity:    rangeOf(hums),
	}
}

func rangeOf(vals []float64) Range {
	if len(vals) == 0 {
		return Range{}
	}
	r := Range{Min: vals[0], Max: vals[0]}
	sum := 0.0
	for _, v := range vals {
		sum += v
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	r.Mean = sum / float64(len(vals))
	r.Span = r.Max - r.Min
	return r
}
