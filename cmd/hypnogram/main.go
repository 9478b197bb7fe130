// Command hypnogram renders the staged epoch sequence of one EDF
// recording as an interactive HTML chart, a PNG, or both.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/somnolab/sleep.report/internal/config"
	"github.com/somnolab/sleep.report/internal/edfio"
	"github.com/somnolab/sleep.report/internal/psg"
	"github.com/somnolab/sleep.report/internal/psg/staging"
)

var (
	edfPath    = flag.String("edf", "", "Input EDF recording (required)")
	htmlPath   = flag.String("html", "", "Output HTML chart path")
	pngPath    = flag.String("png", "", "Output PNG path")
	configPath = flag.String("config", "", "Optional analysis config JSON")
)

// Conventional hypnogram ordering: deep sleep at the bottom, wake on top.
var stageLevels = map[psg.Stage]float64{
	psg.StageN3:   0,
	psg.StageN2:   1,
	psg.StageN1:   2,
	psg.StageREM:  3,
	psg.StageWake: 4,
}

var levelNames = []string{"N3", "N2", "N1", "R", "W"}

func main() {
	flag.Parse()
	if *edfPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *htmlPath == "" && *pngPath == "" {
		log.Fatal("at least one of -html or -png is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	rec, err := edfio.Load(*edfPath)
	if err != nil {
		log.Fatal(err)
	}
	stages := staging.Stage(rec.Annotations, cfg)
	if len(stages.Sequence) == 0 {
		log.Fatalf("%s has no scorable sleep-stage epochs", *edfPath)
	}

	if *htmlPath != "" {
		if err := renderHTML(rec.StudyID, stages, *htmlPath); err != nil {
			log.Fatalf("rendering HTML: %v", err)
		}
		log.Printf("wrote %s", *htmlPath)
	}
	if *pngPath != "" {
		if err := renderPNG(stages, *pngPath); err != nil {
			log.Fatalf("rendering PNG: %v", err)
		}
		log.Printf("wrote %s", *pngPath)
	}
}

func renderHTML(studyID string, stages *staging.Result, path string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Hypnogram", Width: "1200px", Height: "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Hypnogram",
			Subtitle: fmt.Sprintf("study=%s epochs=%d efficiency=%.1f%%",
				studyID, len(stages.Sequence), stages.SleepEfficiency),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (h)"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Stage", Min: -0.5, Max: 4.5,
			AxisLabel: &opts.AxisLabel{Formatter: opts.FuncOpts(stageAxisFormatter)},
		}),
	)

	labels := make([]string, len(stages.Sequence))
	data := make([]opts.LineData, len(stages.Sequence))
	for i, stage := range stages.Sequence {
		labels[i] = fmt.Sprintf("%.2f", float64(i)*psg.EpochSeconds/3600)
		data[i] = opts.LineData{Value: stageLevels[stage]}
	}

	line.SetXAxis(labels)
	line.AddSeries("stage", data, charts.WithLineChartOpts(opts.LineChart{Step: "end"}))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}

// stageAxisFormatter maps the numeric stage levels back to their labels
// on the rendered chart's y axis.
const stageAxisFormatter = `function (value) {
	return ['N3', 'N2', 'N1', 'R', 'W'][Math.round(value)] || '';
}`

func renderPNG(stages *staging.Result, path string) error {
	p := plot.New()
	p.Title.Text = "Hypnogram"
	p.X.Label.Text = "Time (h)"
	p.Y.Label.Text = "Stage"
	p.Y.Min, p.Y.Max = -0.5, 4.5
	p.Y.Tick.Marker = stageTicks{}

	pts := make(plotter.XYs, 0, 2*len(stages.Sequence))
	for i, stage := range stages.Sequence {
		t0 := float64(i) * psg.EpochSeconds / 3600
		t1 := float64(i+1) * psg.EpochSeconds / 3600
		y := stageLevels[stage]
		pts = append(pts, plotter.XY{X: t0, Y: y}, plotter.XY{X: t1, Y: y})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(14*vg.Inch, 4*vg.Inch, path)
}

type stageTicks struct{}

func (stageTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, len(levelNames))
	for i, name := range levelNames {
		v := float64(i)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: name})
	}
	return ticks
}
