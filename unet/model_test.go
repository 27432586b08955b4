package unet_test

import (
	"reflect"
	"testing"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/im2im/unet"
)

func forwardNoGrad(t *testing.T, m ts.ModuleT, shape []int64) *ts.Tensor {
	t.Helper()

	x := ts.MustRand(shape, gotch.Float, gotch.CPU)
	var out *ts.Tensor
	ts.NoGrad(func() {
		out = m.ForwardT(x, false)
	})
	x.MustDrop()

	return out
}

func outputRange(out *ts.Tensor) (min, max float64) {
	minTs := out.MustMin(false)
	maxTs := out.MustMax(false)
	min = minTs.Float64Values()[0]
	max = maxTs.Float64Values()[0]
	minTs.MustDrop()
	maxTs.MustDrop()

	return min, max
}

func TestUNetShapeRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		nChannels int64
		nClasses  int64
		bilinear  bool
		input     []int64
	}{
		{"gray-convtranspose-100x100", 1, 1, false, []int64{1, 1, 100, 100}},
		{"rgb-bilinear-64x64", 3, 2, true, []int64{2, 3, 64, 64}},
		{"odd-bilinear-101x75", 1, 1, true, []int64{1, 1, 101, 75}},
		{"odd-convtranspose-75x101", 3, 3, false, []int64{1, 3, 75, 101}},
		{"min-size-16x16", 2, 4, false, []int64{1, 2, 16, 16}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vs := nn.NewVarStore(gotch.CPU)
			net := unet.NewUNet(vs.Root(), tc.nChannels, tc.nClasses, tc.bilinear)

			out := forwardNoGrad(t, net, tc.input)
			defer out.MustDrop()

			want := []int64{tc.input[0], tc.nClasses, tc.input[2], tc.input[3]}
			got := out.MustSize()
			if !reflect.DeepEqual(got, want) {
				t.Errorf("output shape: want %v, got %v", want, got)
			}

			min, max := outputRange(out)
			if min <= -1.0 || max >= 1.0 {
				t.Errorf("output out of (-1, 1): min %v, max %v", min, max)
			}
		})
	}
}

// Odd input sizes produce odd sizes at every decoder depth
// (101 -> 50 -> 25 -> 12 -> 6), so each Up stage has to pad before it
// can concatenate with its skip connection.
func TestUNetOddSizeEveryDepth(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	net := unet.NewUNet(vs.Root(), 1, 1, false)

	out := forwardNoGrad(t, net, []int64{1, 1, 101, 101})
	defer out.MustDrop()

	want := []int64{1, 1, 101, 101}
	got := out.MustSize()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output shape: want %v, got %v", want, got)
	}
}

// Toggling bilinear changes the upscaling mechanism and bottleneck width
// only; the input/output shape contract stays the same.
func TestUNetBilinearToggle(t *testing.T) {
	input := []int64{2, 3, 96, 96}

	var shapes [][]int64
	for _, bilinear := range []bool{true, false} {
		vs := nn.NewVarStore(gotch.CPU)
		net := unet.NewUNet(vs.Root(), 3, 2, bilinear)

		out := forwardNoGrad(t, net, input)
		shapes = append(shapes, out.MustSize())
		out.MustDrop()
	}

	if !reflect.DeepEqual(shapes[0], shapes[1]) {
		t.Errorf("shape contract differs across bilinear toggle: %v vs %v", shapes[0], shapes[1])
	}
}

// AvgPoolUNet and UNet given identically shaped input must produce
// identically shaped output (values differ due to pooling statistics).
func TestAvgPoolUNetShapeParity(t *testing.T) {
	input := []int64{1, 1, 100, 100}

	vs1 := nn.NewVarStore(gotch.CPU)
	maxNet := unet.NewUNet(vs1.Root(), 1, 1, false)
	maxOut := forwardNoGrad(t, maxNet, input)
	defer maxOut.MustDrop()

	vs2 := nn.NewVarStore(gotch.CPU)
	avgNet := unet.NewAvgPoolUNet(vs2.Root(), 1, 1, false)
	avgOut := forwardNoGrad(t, avgNet, input)
	defer avgOut.MustDrop()

	if !reflect.DeepEqual(maxOut.MustSize(), avgOut.MustSize()) {
		t.Errorf("shape mismatch: UNet %v, AvgPoolUNet %v", maxOut.MustSize(), avgOut.MustSize())
	}

	min, max := outputRange(avgOut)
	if min <= -1.0 || max >= 1.0 {
		t.Errorf("AvgPoolUNet output out of (-1, 1): min %v, max %v", min, max)
	}
}

func TestDefaultUNet(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	net := unet.DefaultUNet(vs.Root())

	out := forwardNoGrad(t, net, []int64{1, 3, 32, 32})
	defer out.MustDrop()

	want := []int64{1, 1, 32, 32}
	got := out.MustSize()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output shape: want %v, got %v", want, got)
	}
}
