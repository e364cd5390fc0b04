// Package analysis collects exploration progress samples and renders them
// for comparison across tactics and seeds.
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/permutest/permutest/explore"
)

// CoveragePoint is one per-invocation sample of exploration progress.
type CoveragePoint struct {
	Invocation         int
	FractionUnexplored float64
	DepthBound         int
	NodeCount          int
	FullyExplored      bool
}

// CoverageSeries accumulates the samples of one exploration run.
type CoverageSeries struct {
	Name   string
	Points []CoveragePoint
}

// NewCoverageSeries returns an empty series labeled for plots and summaries.
func NewCoverageSeries(name string) *CoverageSeries {
	return &CoverageSeries{Name: name}
}

// Observe appends a sample. Its signature matches the harness invocation
// hook, so a series can be registered directly on a runner.
func (s *CoverageSeries) Observe(invocation int, st explore.Stats) {
	s.Points = append(s.Points, CoveragePoint{
		Invocation:         invocation,
		FractionUnexplored: st.RootFractionUnexplored,
		DepthBound:         st.DepthBound,
		NodeCount:          st.NodeCount,
		FullyExplored:      st.RootFullyExplored,
	})
}

// Summary condenses a series to its end state. MeanUnexplored averages the
// unexplored fraction over the whole run, so two tactics that both finish can
// still be ranked by how quickly they got there (lower is faster).
type Summary struct {
	Name               string
	Invocations        int
	FractionUnexplored float64
	MeanUnexplored     float64
	DepthBound         int
	NodeCount          int
	FullyExplored      bool
}

// Summary returns the end state of the series. An empty series summarizes to
// zero values.
func (s *CoverageSeries) Summary() Summary {
	sum := Summary{Name: s.Name, FractionUnexplored: 1, MeanUnexplored: 1}
	if len(s.Points) == 0 {
		return sum
	}
	fractions := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		fractions[i] = pt.FractionUnexplored
	}
	last := s.Points[len(s.Points)-1]
	sum.Invocations = last.Invocation
	sum.FractionUnexplored = last.FractionUnexplored
	sum.MeanUnexplored = stat.Mean(fractions, nil)
	sum.DepthBound = last.DepthBound
	sum.NodeCount = last.NodeCount
	sum.FullyExplored = last.FullyExplored
	return sum
}

func (sum Summary) String() string {
	state := "partial"
	if sum.FullyExplored {
		state = "complete"
	}
	return fmt.Sprintf("%s: %d invocations, %d tree nodes, bound %d, coverage %s (%.3f unexplored, %.3f mean)",
		sum.Name, sum.Invocations, sum.NodeCount, sum.DepthBound, state, sum.FractionUnexplored, sum.MeanUnexplored)
}

// PlotCoverage renders the series as unexplored-fraction-over-invocations
// lines into a single image file. The format follows the file extension.
func PlotCoverage(path string, series ...*CoverageSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("nothing to plot")
	}
	p := plot.New()
	p.Title.Text = "Exploration coverage"
	p.X.Label.Text = "Invocation"
	p.Y.Label.Text = "Fraction unexplored"
	p.Y.Min = 0

	for i, s := range series {
		points := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			points[j] = plotter.XY{X: float64(pt.Invocation), Y: pt.FractionUnexplored}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("building line for %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("saving coverage plot: %w", err)
	}
	return nil
}
