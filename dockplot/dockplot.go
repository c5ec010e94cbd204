/*
 * dockplot.go, part of godock.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * goDock is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

//Package dockplot draws simple diagnostic plots for docking runs.
package dockplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	dock "github.com/rmera/godock"
)

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//Energies plots the free energy of the given poses against their rank
//and saves the plot as plotname.png. It is meant for the representative
//poses of one ligand, so the spread between ranks can be eyeballed.
func Energies(results []*dock.Result, title, plotname string) error {
	if len(results) == 0 {
		return fmt.Errorf("dockplot.Energies: nothing to plot")
	}
	p := basicPlot(title, "Pose rank", "Free energy (kcal/mol)")
	pts := make(plotter.XYs, len(results))
	for i, r := range results {
		pts[i].X = float64(i + 1)
		pts[i].Y = r.E
	}
	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{B: 255, A: 255}
	scatter.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	p.Add(line, scatter)
	return p.Save(12*vg.Centimeter, 8*vg.Centimeter, fmt.Sprintf("%s.png", plotname))
}

//Trace plots the incumbent energy of a search against the generation
//at which it was found, one line per seed, and saves the plot as
//plotname.png. A trace that flattens early suggests the number of
//generations can be lowered.
func Trace(traces [][]float64, title, plotname string) error {
	if len(traces) == 0 {
		return fmt.Errorf("dockplot.Trace: nothing to plot")
	}
	p := basicPlot(title, "Generation", "Incumbent energy (kcal/mol)")
	for key, trace := range traces {
		pts := make(plotter.XYs, len(trace))
		for i, e := range trace {
			pts[i].X = float64(i)
			pts[i].Y = e
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		r, g, b := colors(key, len(traces))
		line.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		p.Add(line)
	}
	return p.Save(12*vg.Centimeter, 8*vg.Centimeter, fmt.Sprintf("%s.png", plotname))
}
