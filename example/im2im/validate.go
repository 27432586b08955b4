package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/dutil"
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"
	"github.com/sugarme/gotch/vision"

	"github.com/sugarme/im2im/metric"
)

// doValidate runs a no-grad pass over the held-out tiles and reports
// mean L1 loss and PSNR of the tanh-bounded predictions.
func doValidate(net ts.ModuleT, fnames []string) (loss, psnr float64) {
	validDS := NewPairDataset(fnames)
	s, err := dutil.NewBatchSampler(validDS.Len(), BatchSize, false, false) // no shuffle
	if err != nil {
		log.Fatal(err)
	}
	validDL, err := dutil.NewDataLoader(validDS, s)
	if err != nil {
		log.Fatal(err)
	}

	var (
		losses []float64
		psnrs  []float64
	)
	for validDL.HasNext() {
		item, err := validDL.Next()
		if err != nil {
			log.Fatal(err)
		}

		input, target := stackBatch(item.([]InputTarget))

		var pred *ts.Tensor
		ts.NoGrad(func() {
			pred = net.ForwardT(input, false)
		})

		l := metric.L1Loss(pred, target)
		losses = append(losses, l.Float64Values()[0])
		psnrs = append(psnrs, metric.PSNR(pred, target, 2.0))

		l.MustDrop()
		pred.MustDrop()
		input.MustDrop()
		target.MustDrop()
	}

	loss = avg(losses)
	psnr = avg(psnrs)

	return loss, psnr
}

// writePreview forwards one tile and writes an input|prediction
// side-by-side PNG.
func writePreview(net ts.ModuleT, fname string) error {
	inputPath := filepath.Join(DataPath, "tile", "input", fname)

	inputTs, err := vision.Load(inputPath)
	if err != nil {
		return err
	}
	input := inputTs.MustDivScalar(ts.FloatScalar(255.0), true).MustUnsqueeze(0, true)

	var pred *ts.Tensor
	ts.NoGrad(func() {
		pred = net.ForwardT(input, false)
	})
	input.MustDrop()

	// tanh output in (-1, 1) back to pixel range
	out := pred.MustSelect(0, 0, true)
	pixels := out.MustAddScalar(ts.FloatScalar(1.0), true).
		MustMulScalar(ts.FloatScalar(127.5), true).
		MustTotype(gotch.Uint8, true)

	predPath := filepath.Join(DataPath, "preview-pred.png")
	if err := vision.Save(pixels, predPath); err != nil {
		pixels.MustDrop()
		return err
	}
	pixels.MustDrop()

	inputImg, err := readImage(inputPath)
	if err != nil {
		return err
	}
	predImg, err := readImage(predPath)
	if err != nil {
		return err
	}

	preview := sideBySide(inputImg, predImg)
	return savePNG(preview, filepath.Join(DataPath, "preview.png"))
}

func runValidate() {
	if ModelPath == "" {
		log.Fatal("validate task requires -model pointing to a checkpoint")
	}

	vs := nn.NewVarStore(Device)
	net := newModel(vs)
	loadWeights(vs, ModelPath, ModelFrom)

	fnames, err := listTiles()
	if err != nil {
		log.Fatal(err)
	}
	if len(fnames) > ValidSize {
		fnames = fnames[:ValidSize]
	}

	loss, psnr := doValidate(net, fnames)
	fmt.Printf("valid loss: %6.4f\t PSNR: %5.2fdB\n", loss, psnr)

	if err := writePreview(net, fnames[0]); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Preview written to %v\n", filepath.Join(DataPath, "preview.png"))
}
