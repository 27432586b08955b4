package metric

import (
	"math"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/ts"
)

// smoothing factor to avoid zero division on empty masks
const eps float64 = 1e-8

// BCEWithLogitsLoss computes mean binary cross entropy on raw logits.
func BCEWithLogitsLoss(logit, target *ts.Tensor) *ts.Tensor {
	logitR := logit.MustReshape([]int64{-1}, false)
	targetR := target.MustReshape([]int64{-1}, false)

	// NOTE: reduction: none = 0; mean = 1; sum = 2. Default = mean
	// ref. https://pytorch.org/docs/master/nn.functional.html#torch.nn.functional.binary_cross_entropy_with_logits
	loss := logitR.MustBinaryCrossEntropyWithLogits(targetR, ts.NewTensor(), ts.NewTensor(), 1, true)
	targetR.MustDrop()

	return loss
}

// L1Loss computes mean absolute error between prediction and target.
func L1Loss(pred, target *ts.Tensor) *ts.Tensor {
	// reduction: mean = 1
	return pred.MustL1Loss(target, 1, false)
}

// DiceCoeff measures overlap between a binary prediction and target.
// 1.0 denotes perfect and complete overlap.
// Ref. http://campar.in.tum.de/pub/milletari2016Vnet/milletari2016Vnet.pdf
func DiceCoeff(pred, target *ts.Tensor) float64 {
	p := pred.MustView([]int64{-1}, false)
	t := target.MustView([]int64{-1}, false)

	ptMul := p.MustMul(t, false)
	overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
	pSum := p.MustSum(gotch.Double, true).Float64Values()[0]
	tSum := t.MustSum(gotch.Double, true).Float64Values()[0]

	return (2*overlap + eps) / (pSum + tSum + eps)
}

// DiceCoeffBatch averages DiceCoeff over the batch axis.
func DiceCoeffBatch(preds, targets *ts.Tensor) float64 {
	n := preds.MustSize()[0]

	var sum float64
	for i := int64(0); i < n; i++ {
		p := preds.MustSelect(0, i, false)
		t := targets.MustSelect(0, i, false)
		sum += DiceCoeff(p, t)
		p.MustDrop()
		t.MustDrop()
	}

	return sum / float64(n)
}

// IoU computes intersection over union of a binary prediction and target.
func IoU(pred, target *ts.Tensor) float64 {
	p := pred.MustView([]int64{-1}, false)
	t := target.MustView([]int64{-1}, false)

	ptMul := p.MustMul(t, false)
	overlap := ptMul.MustSum(gotch.Double, true).Float64Values()[0]
	pSum := p.MustSum(gotch.Double, true).Float64Values()[0]
	tSum := t.MustSum(gotch.Double, true).Float64Values()[0]
	union := pSum + tSum - overlap

	return (overlap + eps) / (union + eps)
}

// JaccardIndex averages per-class IoU over nClasses label values.
// pred and target hold integer class labels.
func JaccardIndex(pred, target *ts.Tensor, nClasses int64) float64 {
	var sum float64
	for c := int64(0); c < nClasses; c++ {
		p := pred.MustEq(ts.IntScalar(c), false).MustTotype(gotch.Double, true)
		t := target.MustEq(ts.IntScalar(c), false).MustTotype(gotch.Double, true)
		sum += IoU(p, t)
		p.MustDrop()
		t.MustDrop()
	}

	return sum / float64(nClasses)
}

// PSNR computes peak signal-to-noise ratio in dB. peak is the maximum
// possible value of the signal (2.0 for tanh-bounded outputs).
func PSNR(pred, target *ts.Tensor, peak float64) float64 {
	// reduction: mean = 1
	mseTs := pred.MustMseLoss(target, 1, false)
	mse := mseTs.Float64Values()[0]
	mseTs.MustDrop()

	if mse == 0 {
		return math.Inf(1)
	}

	return 10 * math.Log10(peak*peak/mse)
}
