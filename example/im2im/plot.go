package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// runPlot charts the loss-history CSV written during training.
func runPlot() {
	fname := filepath.Join(DataPath, "loss-history.csv")
	f, err := os.Open(fname)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	epochs := df.Col("epoch").Float()
	trainLoss := df.Col("train_loss").Float()
	validLoss := df.Col("valid_loss").Float()

	p, err := plot.New()
	if err != nil {
		log.Fatal(err)
	}
	p.Title.Text = "Training history"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "L1 loss"

	trainXY := make(plotter.XYs, len(epochs))
	validXY := make(plotter.XYs, len(epochs))
	for i := range epochs {
		trainXY[i].X = epochs[i]
		trainXY[i].Y = trainLoss[i]
		validXY[i].X = epochs[i]
		validXY[i].Y = validLoss[i]
	}

	trainLine, err := plotter.NewLine(trainXY)
	if err != nil {
		log.Fatal(err)
	}
	validLine, err := plotter.NewLine(validXY)
	if err != nil {
		log.Fatal(err)
	}
	validLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(trainLine, validLine)
	p.Legend.Add("train", trainLine)
	p.Legend.Add("valid", validLine)

	out := filepath.Join(DataPath, "loss-history.png")
	if err := p.Save(8*vg.Inch, 6*vg.Inch, out); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Plot written to %v\n", out)
}
