package metric_test

import (
	"math"
	"testing"

	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/im2im/metric"
)

func TestDiceCoeff(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	dice := metric.DiceCoeff(pred, target)
	if math.Abs(dice-0.8571) > 1e-3 {
		t.Errorf("want dice 0.8571, got %0.4f", dice)
	}

	pred.MustDrop()
	target.MustDrop()
}

func TestDiceCoeffBatch(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	// batch of 2 identical samples averages to the per-sample score
	pred := ts.MustOfSlice(append(pslice, pslice...)).MustView([]int64{2, 3, 3}, true)
	target := ts.MustOfSlice(append(tslice, tslice...)).MustView([]int64{2, 3, 3}, true)

	dice := metric.DiceCoeffBatch(pred, target)
	if math.Abs(dice-0.8571) > 1e-3 {
		t.Errorf("want batch dice 0.8571, got %0.4f", dice)
	}

	pred.MustDrop()
	target.MustDrop()
}

func TestIoU(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	iou := metric.IoU(pred, target)
	if math.Abs(iou-0.7500) > 1e-3 {
		t.Errorf("want IoU 0.7500, got %0.4f", iou)
	}

	pred.MustDrop()
	target.MustDrop()
}

func TestJaccardIndex(t *testing.T) {
	pslice := []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice := []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}

	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)

	// class 0: overlap 5, union 6; class 1: overlap 3, union 4
	want := (5.0/6.0 + 3.0/4.0) / 2
	iou := metric.JaccardIndex(pred, target, 2)
	if math.Abs(iou-want) > 1e-3 {
		t.Errorf("want Jaccard %0.4f, got %0.4f", want, iou)
	}

	pred.MustDrop()
	target.MustDrop()
}

func TestL1Loss(t *testing.T) {
	pslice := []float64{0.0, 0.5, 1.0, -0.5}
	tslice := []float64{0.5, 0.5, 0.0, -1.0}

	pred := ts.MustOfSlice(pslice)
	target := ts.MustOfSlice(tslice)

	loss := metric.L1Loss(pred, target)
	got := loss.Float64Values()[0]
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("want L1 0.5, got %v", got)
	}

	loss.MustDrop()
	pred.MustDrop()
	target.MustDrop()
}

func TestPSNR(t *testing.T) {
	pred := ts.MustOfSlice([]float64{0.0, 0.0, 0.0, 0.0})
	target := ts.MustOfSlice([]float64{0.2, 0.2, 0.2, 0.2})

	// mse = 0.04, peak = 2 => 10*log10(4/0.04) = 20
	psnr := metric.PSNR(pred, target, 2.0)
	if math.Abs(psnr-20.0) > 1e-3 {
		t.Errorf("want PSNR 20dB, got %v", psnr)
	}

	if !math.IsInf(metric.PSNR(target, target, 2.0), 1) {
		t.Error("identical tensors should give +Inf PSNR")
	}

	pred.MustDrop()
	target.MustDrop()
}

func TestBCEWithLogitsLoss(t *testing.T) {
	logit := ts.MustOfSlice([]float64{0.0, 0.0})
	target := ts.MustOfSlice([]float64{1.0, 0.0})

	// sigmoid(0) = 0.5 => -log(0.5) per element
	loss := metric.BCEWithLogitsLoss(logit, target)
	got := loss.Float64Values()[0]
	want := -math.Log(0.5)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("want BCE %v, got %v", want, got)
	}

	loss.MustDrop()
	logit.MustDrop()
	target.MustDrop()
}
