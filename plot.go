// Copyright (C) The pnps Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package pnps

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Pool colours (blue, orange, green, red) at 70% opacity.
var poolColors = [numPools]color.Color{
	color.NRGBA{R: 0, G: 0, B: 255, A: 179},
	color.NRGBA{R: 255, G: 165, B: 0, A: 179},
	color.NRGBA{R: 0, G: 128, B: 0, A: 179},
	color.NRGBA{R: 255, G: 0, B: 0, A: 179},
}

var codonPositionLabels = []string{"1st", "2nd", "3rd"}

func countValues(n [3]int) plotter.Values {
	return plotter.Values{float64(n[0]), float64(n[1]), float64(n[2])}
}

// drawGrid lays out plots in a rows x cols grid on a w x h image and
// writes it as PNG. nil plots leave their tile blank.
func drawGrid(w io.Writer, plots [][]*plot.Plot, width, height vg.Length) error {
	rows, cols := len(plots), len(plots[0])
	aligned := make([][]*plot.Plot, rows)
	for i, row := range plots {
		aligned[i] = make([]*plot.Plot, cols)
		for j, p := range row {
			if p == nil {
				p = plot.New()
			}
			aligned[i][j] = p
		}
	}
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(aligned, tiles, dc)
	for i, row := range plots {
		for j, p := range row {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// plotCodonPositions draws one bar chart of position totals per pool,
// in a 2x2 grid, with the uniformity p-value in each title.
func plotCodonPositions(w io.Writer, reports []CodonPositionReport) error {
	plots := [][]*plot.Plot{make([]*plot.Plot, 2), make([]*plot.Plot, 2)}
	for i, rep := range reports {
		if i >= 4 {
			break
		}
		p := plot.New()
		p.Title.Text = fmt.Sprintf("(%s) p = %.4f", rep.Pool, rep.PValue)
		p.Y.Label.Text = "Number of Mutations"
		p.X.Label.Text = "Codon Position"
		bars, err := plotter.NewBarChart(countValues(rep.Positions), vg.Points(30))
		if err != nil {
			return err
		}
		bars.Color = poolColors[rep.Pool]
		p.Add(bars)
		p.NominalX("1", "2", "3")
		plots[i/2][i%2] = p
	}
	return drawGrid(w, plots, 5*vg.Inch, 5*vg.Inch)
}

// plotCodonPositionClasses draws one grouped bar chart per mutation
// class (4x3 grid, last tile blank), with one bar per pool at each
// codon position.
func plotCodonPositionClasses(w io.Writer, reports []CodonPositionReport) error {
	const gridRows, gridCols = 4, 3
	plots := make([][]*plot.Plot, gridRows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, gridCols)
	}
	barWidth := vg.Points(12)
	for ci, class := range mutationClasses {
		p := plot.New()
		p.Title.Text = class
		p.Y.Label.Text = "Number of Mutations"
		p.X.Label.Text = "Codon Position"
		for j, rep := range reports {
			bars, err := plotter.NewBarChart(countValues(rep.Classes[ci]), barWidth)
			if err != nil {
				return err
			}
			bars.Color = poolColors[rep.Pool]
			bars.Offset = vg.Length(2*j-len(reports)+1) * barWidth / 2
			p.Add(bars)
			if ci == 0 {
				p.Legend.Add(rep.Pool.String(), bars)
			}
		}
		if ci == 0 {
			p.Legend.Top = true
		}
		p.NominalX(codonPositionLabels...)
		plots[ci/gridCols][ci%gridCols] = p
	}
	return drawGrid(w, plots, 15*vg.Inch, 12*vg.Inch)
}
