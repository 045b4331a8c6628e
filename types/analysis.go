package types

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RewardSeries holds the per-iteration reward statistics of one experiment
type RewardSeries struct {
	Mean []float64
	Max  []float64
}

// RewardAnalyzer extracts the reward curves of a training run
type RewardAnalyzer struct {
	series *RewardSeries
}

var _ Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	return &RewardAnalyzer{series: &RewardSeries{}}
}

func (r *RewardAnalyzer) Analyze(run int, name string, result *TrainResult) {
	for _, s := range result.Stats {
		r.series.Mean = append(r.series.Mean, s.MeanReward)
		r.series.Max = append(r.series.Max, s.MaxReward)
	}
}

func (r *RewardAnalyzer) DataSet() DataSet {
	return r.series
}

func (r *RewardAnalyzer) Reset() {
	r.series = &RewardSeries{}
}

// RewardComparator plots the mean and max reward curves of all experiments
func RewardComparator(plotPath string) Comparator {
	return func(run int, names []string, datasets []DataSet) {
		meanSeries := make([][]float64, len(names))
		maxSeries := make([][]float64, len(names))
		for i := range names {
			series, ok := datasets[i].(*RewardSeries)
			if !ok {
				continue
			}
			meanSeries[i] = series.Mean
			maxSeries[i] = series.Max
		}
		plotLines(plotPath, strconv.Itoa(run)+"_mean_reward.png", "Mean final reward", names, meanSeries)
		plotLines(plotPath, strconv.Itoa(run)+"_max_reward.png", "Max final reward", names, maxSeries)
	}
}

// LossSeries holds the per-iteration fit losses of one experiment
type LossSeries struct {
	Start []float64
	Final []float64
}

// LossAnalyzer extracts the fit loss curves of a training run
type LossAnalyzer struct {
	series *LossSeries
}

var _ Analyzer = &LossAnalyzer{}

func NewLossAnalyzer() *LossAnalyzer {
	return &LossAnalyzer{series: &LossSeries{}}
}

func (l *LossAnalyzer) Analyze(run int, name string, result *TrainResult) {
	for _, s := range result.Stats {
		l.series.Start = append(l.series.Start, s.StartLoss)
		l.series.Final = append(l.series.Final, s.FinalLoss)
	}
}

func (l *LossAnalyzer) DataSet() DataSet {
	return l.series
}

func (l *LossAnalyzer) Reset() {
	l.series = &LossSeries{}
}

// LossComparator plots the final and start loss curves of all experiments
func LossComparator(plotPath string) Comparator {
	return func(run int, names []string, datasets []DataSet) {
		startSeries := make([][]float64, len(names))
		finalSeries := make([][]float64, len(names))
		for i := range names {
			series, ok := datasets[i].(*LossSeries)
			if !ok {
				continue
			}
			startSeries[i] = series.Start
			finalSeries[i] = series.Final
		}
		plotLines(plotPath, strconv.Itoa(run)+"_loss.png", "Final fit loss", names, finalSeries)
		plotLines(plotPath, strconv.Itoa(run)+"_start_loss.png", "Start fit loss", names, startSeries)
	}
}

// SampleAnalyzer extracts the per-iteration sample counts of a training run
type SampleAnalyzer struct {
	samples []float64
}

var _ Analyzer = &SampleAnalyzer{}

func NewSampleAnalyzer() *SampleAnalyzer {
	return &SampleAnalyzer{samples: make([]float64, 0)}
}

func (s *SampleAnalyzer) Analyze(run int, name string, result *TrainResult) {
	for _, st := range result.Stats {
		s.samples = append(s.samples, float64(st.Samples))
	}
}

func (s *SampleAnalyzer) DataSet() DataSet {
	return s.samples
}

func (s *SampleAnalyzer) Reset() {
	s.samples = make([]float64, 0)
}

// SampleComparator plots the batch sizes of all experiments
func SampleComparator(plotPath string) Comparator {
	return func(run int, names []string, datasets []DataSet) {
		series := make([][]float64, len(names))
		for i := range names {
			samples, ok := datasets[i].([]float64)
			if !ok {
				continue
			}
			series[i] = samples
		}
		plotLines(plotPath, strconv.Itoa(run)+"_samples.png", "Samples per iteration", names, series)
	}
}

func plotLines(plotPath, fileName, yLabel string, names []string, series [][]float64) {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	p := plot.New()
	p.Title.Text = "Comparison"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = yLabel
	for i, values := range series {
		if len(values) == 0 {
			continue
		}
		points := make(plotter.XYs, len(values))
		for j, v := range values {
			points[j] = plotter.XY{
				X: float64(j),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, fileName)); err != nil {
		fmt.Printf("failed to save plot %s: %v\n", fileName, err)
	}
}
