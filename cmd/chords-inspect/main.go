package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-chords/analysis"
	"github.com/cwbudde/algo-chords/internal/wavio"
)

// window is a slice of the render analysed on its own.
type window struct {
	name    string
	startMs float64
	endMs   float64
}

type inspection struct {
	Path    string          `json:"path"`
	Report  analysis.Report `json:"report"`
	Clicks  []click         `json:"clicks"`
	Windows []windowLevels  `json:"windows,omitempty"`
}

type click struct {
	Frame int     `json:"frame"`
	Step  float64 `json:"step"`
}

type windowLevels struct {
	Name   string    `json:"name"`
	Levels []float64 `json:"levels_db"`
}

func main() {
	input := flag.String("input", "output.wav", "WAV file to inspect")
	refPath := flag.String("reference", "", "Optional reference WAV for band level comparison")
	clickThreshold := flag.Float64("click-threshold", 0.05, "Sample step treated as a click")
	windowMs := flag.Float64("window-ms", 250, "Length of each analysis window in ms")
	asJSON := flag.Bool("json", false, "Print the inspection as JSON")
	flag.Parse()

	ins, err := inspect(*input, *clickThreshold, *windowMs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "input: %v\n", err)
		os.Exit(1)
	}
	var ref *inspection
	if *refPath != "" {
		ref, err = inspect(*refPath, *clickThreshold, *windowMs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reference: %v\n", err)
			os.Exit(1)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ins)
		return
	}
	printInspection(os.Stdout, ins, ref)
}

func inspect(path string, clickThreshold float64, windowMs float64) (*inspection, error) {
	x, sr, err := wavio.ReadMono(path)
	if err != nil {
		return nil, err
	}
	ins := &inspection{
		Path:   path,
		Report: analysis.Analyze(x, sr),
		Clicks: findClicks(x, clickThreshold),
	}
	if windowMs <= 0 {
		windowMs = 250
	}
	durMs := 1000 * float64(len(x)) / float64(sr)
	for start := 0.0; start < durMs; start += windowMs {
		w := window{
			name:    fmt.Sprintf("%.0f-%.0fms", start, math.Min(start+windowMs, durMs)),
			startMs: start,
			endMs:   start + windowMs,
		}
		lo := int(w.startMs / 1000 * float64(sr))
		hi := min(int(w.endMs/1000*float64(sr)), len(x))
		levels, err := analysis.BandLevels(x[lo:hi], sr, analysis.DefaultBands)
		if err != nil {
			continue
		}
		ins.Windows = append(ins.Windows, windowLevels{Name: w.name, Levels: levels})
	}
	return ins, nil
}

// findClicks reports every sample step above threshold, merging runs
// closer than a millisecond at 48 kHz.
func findClicks(x []float64, threshold float64) []click {
	var out []click
	last := -1000
	for i := 1; i < len(x); i++ {
		d := math.Abs(x[i] - x[i-1])
		if d <= threshold {
			continue
		}
		if i-last < 48 && len(out) > 0 {
			if d > out[len(out)-1].Step {
				out[len(out)-1].Step = d
			}
		} else {
			out = append(out, click{Frame: i, Step: d})
		}
		last = i
	}
	return out
}

func printInspection(w io.Writer, ins *inspection, ref *inspection) {
	r := ins.Report
	fmt.Fprintf(w, "%s: %d frames @ %d Hz (%.2fs)\n", ins.Path, r.Frames, r.SampleRate, float64(r.Frames)/float64(max(r.SampleRate, 1)))
	fmt.Fprintf(w, "  rms=%.4f peak=%.4f dominant=%.1fHz non-finite=%d\n", r.RMS, r.Peak, r.DominantHz, r.NonFinite)
	fmt.Fprintf(w, "  max step %.4f at frame %d, %d click(s)\n", r.MaxStep, r.MaxStepAt, len(ins.Clicks))
	for _, c := range ins.Clicks {
		fmt.Fprintf(w, "    frame %d (%.1fms) step %.4f\n", c.Frame, 1000*float64(c.Frame)/float64(max(r.SampleRate, 1)), c.Step)
	}
	fmt.Fprintln(w)

	for i, win := range ins.Windows {
		fmt.Fprintf(w, "--- %s ---\n", win.Name)
		for b, band := range analysis.DefaultBands {
			line := fmt.Sprintf("  %-22s %6.1fdB", band.Name, win.Levels[b])
			if ref != nil && i < len(ref.Windows) {
				diff := win.Levels[b] - ref.Windows[i].Levels[b]
				marker := ""
				if math.Abs(diff) > 15 {
					marker = " <<<"
				}
				line += fmt.Sprintf("  ref=%6.1fdB  diff=%+5.1fdB%s", ref.Windows[i].Levels[b], diff, marker)
			}
			fmt.Fprintln(w, line)
		}
	}
}
