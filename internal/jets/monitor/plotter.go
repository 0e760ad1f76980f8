package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/jetreco/internal/jets/pipeline"
	"github.com/banshee-data/jetreco/internal/monitoring"
	"github.com/banshee-data/jetreco/internal/security"
)

const (
	jetPtBins = 50
	jetPtMax  = 250.0
)

// Plotter accumulates pedestal profiles, rho and jet pt over a run for
// plotting after the run. It is a pipeline.Sink.
type Plotter struct {
	mu      sync.Mutex
	ietaMin int
	ietaMax int

	// per ieta sums over corrected events
	meanSum  map[int]float64
	sigmaSum map[int]float64
	samples  map[int]int

	rho   plotter.XYs
	jetPt *hbook.H1D
	event int
}

var _ pipeline.Sink = (*Plotter)(nil)

// NewPlotter creates a plotter covering rings [ietaMin, ietaMax].
func NewPlotter(ietaMin, ietaMax int) *Plotter {
	return &Plotter{
		ietaMin:  ietaMin,
		ietaMax:  ietaMax,
		meanSum:  make(map[int]float64),
		sigmaSum: make(map[int]float64),
		samples:  make(map[int]int),
		jetPt:    hbook.NewH1D(jetPtBins, 0, jetPtMax),
	}
}

// Put records one event.
func (pl *Plotter) Put(_ string, p *pipeline.Products) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if p.Pedestal != nil {
		for _, r := range p.Pedestal.All() {
			if r.Ieta < pl.ietaMin || r.Ieta > pl.ietaMax {
				continue
			}
			pl.meanSum[r.Ieta] += r.Mean
			pl.sigmaSum[r.Ieta] += r.Sigma
			pl.samples[r.Ieta]++
		}
	}
	if p.Rho != nil {
		pl.rho = append(pl.rho, plotter.XY{X: float64(pl.event), Y: p.Rho.Rho})
	}
	for _, j := range p.Jets {
		pl.jetPt.Fill(j.Common().P4.Pt(), 1)
	}
	pl.event++
	return nil
}

// Events returns the number of events recorded.
func (pl *Plotter) Events() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.event
}

// RingProfile returns the average pedestal mean and sigma of ring ieta
// over the corrected events seen so far.
func (pl *Plotter) RingProfile(ieta int) (mean, sigma float64, n int) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	n = pl.samples[ieta]
	if n == 0 {
		return 0, 0, 0
	}
	return pl.meanSum[ieta] / float64(n), pl.sigmaSum[ieta] / float64(n), n
}

// PlotPath returns the directory under root that holds the plots of a
// producer instance.
func PlotPath(root, instance string) string {
	if instance == "" {
		instance = "default"
	}
	return filepath.Join(root, security.SanitizeFilename(instance))
}

// Save writes pedestal.png, rho.png and jet_pt.png into dir.
func (pl *Plotter) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if err := pl.savePedestal(filepath.Join(dir, "pedestal.png")); err != nil {
		return err
	}
	if err := pl.saveRho(filepath.Join(dir, "rho.png")); err != nil {
		return err
	}
	if err := pl.saveJetPt(filepath.Join(dir, "jet_pt.png")); err != nil {
		return err
	}
	monitoring.Opsf("wrote plots for %d events to %s", pl.event, dir)
	return nil
}

func (pl *Plotter) savePedestal(path string) error {
	nbins := pl.ietaMax - pl.ietaMin + 1
	lo, hi := float64(pl.ietaMin)-0.5, float64(pl.ietaMax)+0.5
	mean := hbook.NewH1D(nbins, lo, hi)
	sigma := hbook.NewH1D(nbins, lo, hi)
	for ieta, n := range pl.samples {
		mean.Fill(float64(ieta), pl.meanSum[ieta]/float64(n))
		sigma.Fill(float64(ieta), pl.sigmaSum[ieta]/float64(n))
	}

	p := hplot.New()
	p.Title.Text = "Pileup pedestal per ring"
	p.X.Label.Text = "ieta"
	p.Y.Label.Text = "orphan energy (GeV)"
	p.Legend.Top = true

	hMean := hplot.NewH1D(mean)
	hMean.LineStyle.Color = color.RGBA{B: 255, A: 255}
	hSigma := hplot.NewH1D(sigma)
	hSigma.LineStyle.Color = color.RGBA{R: 255, A: 255}
	hSigma.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(hMean, hSigma)
	p.Legend.Add("mean", hMean)
	p.Legend.Add("sigma", hSigma)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func (pl *Plotter) saveRho(path string) error {
	p := plot.New()
	p.Title.Text = "Event energy density"
	p.X.Label.Text = "event"
	p.Y.Label.Text = "rho (GeV)"
	if len(pl.rho) > 0 {
		line, err := plotter.NewLine(pl.rho)
		if err != nil {
			return fmt.Errorf("rho line: %w", err)
		}
		line.Color = color.RGBA{G: 128, A: 255}
		p.Add(line)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func (pl *Plotter) saveJetPt(path string) error {
	p := hplot.New()
	p.Title.Text = "Jet transverse momentum"
	p.X.Label.Text = "pt (GeV)"
	p.Y.Label.Text = "jets"
	h := hplot.NewH1D(pl.jetPt)
	h.LineStyle.Color = color.RGBA{B: 255, A: 255}
	p.Add(h)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
