package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/permutest/permutest/explore"
)

func sampleSeries(name string, n int) *CoverageSeries {
	s := NewCoverageSeries(name)
	for i := 1; i <= n; i++ {
		s.Observe(i, explore.Stats{
			Invocations:            i,
			DepthBound:             i / 4,
			RootFractionUnexplored: 1 - float64(i)/float64(n),
			RootFullyExplored:      i == n,
			NodeCount:              3 + 2*i,
		})
	}
	return s
}

func TestCoverageSeries_Observe(t *testing.T) {
	s := sampleSeries("exhaustive", 8)

	if len(s.Points) != 8 {
		t.Fatalf("len(Points) = %d, want 8", len(s.Points))
	}
	first := s.Points[0]
	if first.Invocation != 1 || first.FullyExplored {
		t.Errorf("first point = %+v, want invocation 1, still open", first)
	}
	last := s.Points[7]
	if last.FractionUnexplored != 0 || !last.FullyExplored {
		t.Errorf("last point = %+v, want a closed root", last)
	}
}

func TestCoverageSeries_Summary(t *testing.T) {
	s := sampleSeries("exhaustive", 8)

	sum := s.Summary()
	if sum.Invocations != 8 || !sum.FullyExplored || sum.NodeCount != 19 {
		t.Errorf("Summary = %+v, want the final sample", sum)
	}
	// Fractions run 7/8 down to 0, so their mean is 1 - 36/64.
	if diff := sum.MeanUnexplored - 0.4375; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("MeanUnexplored = %v, want 0.4375", sum.MeanUnexplored)
	}
	if !strings.Contains(sum.String(), "complete") {
		t.Errorf("Summary.String() = %q, want the coverage state named", sum)
	}

	empty := NewCoverageSeries("empty").Summary()
	if empty.Invocations != 0 || empty.FractionUnexplored != 1 || empty.MeanUnexplored != 1 {
		t.Errorf("empty Summary = %+v, want zero invocations and full weight", empty)
	}
}

func TestPlotCoverage_WritesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.png")

	err := PlotCoverage(path, sampleSeries("exhaustive", 8), sampleSeries("descend", 5))
	if err != nil {
		t.Fatalf("PlotCoverage: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat plot: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestPlotCoverage_NoSeries(t *testing.T) {
	if err := PlotCoverage(filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("PlotCoverage accepted zero series")
	}
}
