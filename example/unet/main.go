package main

import (
	"flag"
	"fmt"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/im2im/unet"
)

// flag variables
var (
	NChannels int64
	NClasses  int64
	Bilinear  bool
	AvgPool   bool
	BatchSize int64
	ImageSize int64
	Rounds    int
	Cuda      bool
)

func init() {
	flag.Int64Var(&NChannels, "channels", 1, "specify number of input channels")
	flag.Int64Var(&NClasses, "classes", 1, "specify number of output channels")
	flag.BoolVar(&Bilinear, "bilinear", false, "specify whether upscaling uses bilinear interpolation instead of transposed conv")
	flag.BoolVar(&AvgPool, "avgpool", true, "specify whether downsampling uses average pooling instead of max pooling")
	flag.Int64Var(&BatchSize, "batch", 1, "specify batch size")
	flag.Int64Var(&ImageSize, "size", 100, "specify input image size")
	flag.IntVar(&Rounds, "rounds", 1, "specify number of forward passes to run")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not")
}

func main() {
	flag.Parse()

	device := gotch.CPU
	if Cuda {
		device = gotch.CudaIfAvailable()
	}

	vs := nn.NewVarStore(device)

	var net ts.ModuleT
	if AvgPool {
		net = unet.NewAvgPoolUNet(vs.Root(), NChannels, NClasses, Bilinear)
	} else {
		net = unet.NewUNet(vs.Root(), NChannels, NClasses, Bilinear)
	}

	input := ts.MustRand([]int64{BatchSize, NChannels, ImageSize, ImageSize}, gotch.Float, device)
	fmt.Printf("input shape: %v\n", input.MustSize())

	for i := 0; i < Rounds; i++ {
		ts.NoGrad(func() {
			out := net.ForwardT(input, false)
			min := out.MustMin(false)
			max := out.MustMax(false)

			fmt.Printf("%02d - output shape: %v\n", i, out.MustSize())
			fmt.Printf("%02d - output range: [%0.4f, %0.4f]\n", i, min.Float64Values()[0], max.Float64Values()[0])

			min.MustDrop()
			max.MustDrop()
			out.MustDrop()
		})
	}

	input.MustDrop()
}
