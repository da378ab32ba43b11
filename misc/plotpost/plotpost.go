// plotpost plots the posterior histogram and the energy trace from an
// fhncal trajectory file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Cricelio/fhncal/dist"
)

// readTrajectory reads (energy, theta) pairs from a trajectory file
// written by fhncal, skipping the header.
func readTrajectory(fn string) (energy, theta []float64, err error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, nil, fmt.Errorf("malformed trajectory line: %q", line)
		}
		u, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, err
		}
		t, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, nil, err
		}
		energy = append(energy, u)
		theta = append(theta, t)
	}
	return energy, theta, scanner.Err()
}

func main() {
	trajF := flag.String("traj", "", "trajectory file written by fhncal")
	burnIn := flag.Float64("burnin", 0.4, "fraction of the chain to discard")
	bins := flag.Int("bins", 20, "number of histogram bins")
	priorP := flag.Float64("priorp", 2, "beta prior shape p")
	priorQ := flag.Float64("priorq", 3.5, "beta prior shape q")
	postF := flag.String("post", "posterior.png", "posterior histogram output")
	energyF := flag.String("energy", "energy.png", "energy trace output")
	flag.Parse()

	if *trajF == "" {
		flag.Usage()
		os.Exit(1)
	}

	energy, theta, err := readTrajectory(*trajF)
	if err != nil {
		panic(err)
	}

	start := int(*burnIn * float64(len(theta)))
	post := theta[start:]

	p, err := plot.New()
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "theta"
	p.Y.Label.Text = "density"

	h, err := plotter.NewHist(plotter.Values(post), *bins)
	if err != nil {
		panic(err)
	}
	h.Normalize(1)
	p.Add(h)

	prior := plotter.NewFunction(func(x float64) float64 {
		return dist.BetaPdf(x, *priorP, *priorQ)
	})
	prior.Samples = 200
	p.Add(prior)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, *postF); err != nil {
		panic(err)
	}

	pe, err := plot.New()
	if err != nil {
		panic(err)
	}
	pe.X.Label.Text = "iteration"
	pe.Y.Label.Text = "energy"

	pts := make(plotter.XYs, len(energy))
	for i, u := range energy {
		pts[i].X = float64(i)
		pts[i].Y = u
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		panic(err)
	}
	pe.Add(line)

	if err := pe.Save(6*vg.Inch, 3*vg.Inch, *energyF); err != nil {
		panic(err)
	}
}
