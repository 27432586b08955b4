package unet

import (
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/im2im/base"
)

// Down is a SequentialT module composed of maxpool and 2x conv.
type Down struct {
	MaxpoolConv *nn.SequentialT
}

// NewDown creates a new Down ModuleT layer.
func NewDown(p *nn.Path, cIn, cOut int64) *Down {
	doubleconv := base.DoubleConv(p.Sub("conv"), cIn, cOut)

	down := nn.SeqT()
	down.AddFn(nn.NewFunc(func(x *ts.Tensor) *ts.Tensor {
		// Down sample to half size: [BCHW] => [B C H/2 W/2]
		// ksize = 2; stride = 2; padding = 0; dilation = 1; ceil = false
		return x.MustMaxPool2d([]int64{2, 2}, []int64{2, 2}, []int64{0, 0}, []int64{1, 1}, false, false)
	}))
	down.Add(doubleconv)

	return &Down{down}
}

// ForwardT implements ts.ModuleT interface for Down struct.
func (l *Down) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return l.MaxpoolConv.ForwardT(x, train)
}

// AvgDown is a SequentialT module composed of average pool and 2x conv.
// Compared to Down, average pooling smooths instead of keeping peaks.
type AvgDown struct {
	AvgpoolConv *nn.SequentialT
}

// NewAvgDown creates a new AvgDown ModuleT layer.
func NewAvgDown(p *nn.Path, cIn, cOut int64) *AvgDown {
	doubleconv := base.DoubleConv(p.Sub("conv"), cIn, cOut)

	down := nn.SeqT()
	down.AddFn(nn.NewFunc(func(x *ts.Tensor) *ts.Tensor {
		// ksize = 2; stride = 2; padding = 0; ceil = false; countIncludePad = true
		return x.MustAvgPool2d([]int64{2, 2}, []int64{2, 2}, []int64{0, 0}, false, true, nil, false)
	}))
	down.Add(doubleconv)

	return &AvgDown{down}
}

// ForwardT implements ts.ModuleT interface for AvgDown struct.
func (l *AvgDown) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return l.AvgpoolConv.ForwardT(x, train)
}

// Up upscales a decoder-path tensor, merges it with a skip connection
// and forwards the result through 2x conv.
type Up struct {
	Bilinear   bool
	UpConv     *nn.ConvTranspose2D // nil when bilinear
	DoubleConv *nn.SequentialT
}

// NewUp creates new Up layer.
//
// With bilinear mode, upscaling is plain interpolation and carries no
// parameters, so the double conv takes cIn/2 mid channels to reduce depth.
// Otherwise a learned transposed convolution halves the channels itself.
func NewUp(p *nn.Path, cIn, cOut int64, bilinear bool) *Up {
	if bilinear {
		doubleconv := base.DoubleConv(p.Sub("conv"), cIn, cOut, cIn/2)
		return &Up{Bilinear: true, DoubleConv: doubleconv}
	}

	config := nn.DefaultConvTranspose2DConfig()
	config.Stride = []int64{2, 2}
	up := nn.NewConvTranspose2D(p.Sub("up"), cIn, cIn/2, []int64{2, 2}, config)
	doubleconv := base.DoubleConv(p.Sub("conv"), cIn, cOut)

	return &Up{UpConv: up, DoubleConv: doubleconv}
}

// UpForward upsamples x1 to match the skip tensor x2, concatenates them on
// the channel axis and forwards through double conv.
// x1, x2 should be in shape [BCHW].
func (l *Up) UpForward(x1, x2 *ts.Tensor, train bool) *ts.Tensor {
	var xUp *ts.Tensor
	if l.Bilinear {
		x1Size := x1.MustSize()
		outSize := []int64{x1Size[2] * 2, x1Size[3] * 2}
		xUp = x1.MustUpsampleBilinear2d(outSize, true, nil, nil, false)
	} else {
		xUp = l.UpConv.Forward(x1)
	}

	// Odd spatial sizes do not halve/double back exactly, so pad the
	// upscaled tensor to the skip tensor's size before concatenating.
	// Difference is split floor/ceil between leading/trailing edges.
	// Ref. https://pytorch.org/docs/stable/nn.functional.html#pad
	upSize := xUp.MustSize()
	x2Size := x2.MustSize()
	diffY := x2Size[2] - upSize[2]
	diffX := x2Size[3] - upSize[3]
	pad := []int64{diffX / 2, diffX - diffX/2, diffY / 2, diffY - diffY/2}
	xPad := xUp.MustConstantPadNd(pad, true)

	x := ts.MustCat([]ts.Tensor{*x2, *xPad}, 1)
	xPad.MustDrop()

	out := l.DoubleConv.ForwardT(x, train)
	x.MustDrop()

	return out
}

// OutConv projects to the target channel count with a 1x1 conv and bounds
// values to (-1, 1) with a tanh.
type OutConv struct {
	Conv *nn.SequentialT
}

// NewOutConv creates a new OutConv layer.
func NewOutConv(p *nn.Path, cIn, cOut int64) *OutConv {
	seq := nn.SeqT()
	seq.Add(base.Conv2d(p.Sub("conv"), cIn, cOut, 1, 0, 1))
	seq.AddFn(nn.NewFunc(func(x *ts.Tensor) *ts.Tensor {
		return x.MustTanh(false)
	}))

	return &OutConv{seq}
}

// ForwardT implements ts.ModuleT interface for OutConv struct.
func (l *OutConv) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return l.Conv.ForwardT(x, train)
}
