package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/go-gota/gota/dataframe"
	"github.com/sugarme/gotch/ts"
	"github.com/sugarme/gotch/vision"
)

// Pair is one manifest row: source image and its paired target image.
type Pair struct {
	Input  string
	Target string
}

// readManifest reads a CSV manifest with 'input' and 'target' path columns.
func readManifest(filename string) ([]Pair, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	inputs := df.Col("input").Records()
	targets := df.Col("target").Records()

	var pairs []Pair
	for i := range inputs {
		pairs = append(pairs, Pair{Input: inputs[i], Target: targets[i]})
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("Empty manifest: %v\n", filename)
	}

	return pairs, nil
}

// PairDataset implements dutil.Dataset over prepared tile pairs.
// Input and target tiles share a file name under tile/input and tile/target.
type PairDataset struct {
	fnames []string
}

func NewPairDataset(fnames []string) *PairDataset {
	return &PairDataset{fnames: fnames}
}

func (ds *PairDataset) Len() int {
	return len(ds.fnames)
}

type InputTarget struct {
	input  ts.Tensor
	target ts.Tensor
}

// Item implements dutil.Dataset interface.
//
// Input is scaled to [0, 1]; target to [-1, 1] to match the model's
// tanh-bounded output.
func (ds *PairDataset) Item(idx int) (interface{}, error) {
	fname := ds.fnames[idx]
	inputPath := filepath.Join(DataPath, "tile", "input", fname)
	targetPath := filepath.Join(DataPath, "tile", "target", fname)

	inputTs, err := vision.Load(inputPath)
	if err != nil {
		return nil, err
	}
	input := inputTs.MustDivScalar(ts.FloatScalar(255.0), true)

	targetTs, err := vision.Load(targetPath)
	if err != nil {
		return nil, err
	}
	target := targetTs.MustDivScalar(ts.FloatScalar(127.5), true).MustSubScalar(ts.FloatScalar(1.0), true)

	return InputTarget{
		input:  *input,
		target: *target,
	}, nil
}

func (ds *PairDataset) DType() reflect.Type {
	return reflect.TypeOf(ds.fnames)
}

// listTiles returns the prepared tile file names, sorted by ReadDir.
func listTiles() ([]string, error) {
	inputDir := filepath.Join(DataPath, "tile", "input")
	files, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var fnames []string
	for _, f := range files {
		fnames = append(fnames, f.Name())
	}

	if len(fnames) == 0 {
		return nil, fmt.Errorf("No prepared tiles at %v. Run -task prep first.\n", inputDir)
	}

	return fnames, nil
}
