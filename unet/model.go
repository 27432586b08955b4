package unet

import (
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/im2im/base"
)

// UNet is a UNet model for image-to-image tasks.
// Ref: https://arxiv.org/abs/1505.04597
//
// The encoder halves spatial size 4 times (max pooling) while doubling
// channel depth (64 -> 1024); the decoder mirrors it, consuming the encoder
// output at matching depth as a skip connection at every stage. Output has
// the input's spatial size with values bounded to (-1, 1).
type UNet struct {
	NChannels int64
	NClasses  int64
	Bilinear  bool

	Inc *nn.SequentialT

	Down1 *Down
	Down2 *Down
	Down3 *Down
	Down4 *Down

	Up1 *Up
	Up2 *Up
	Up3 *Up
	Up4 *Up

	OutC *OutConv
}

// NewUNet creates a UNet with nChannels input channels and nClasses output
// channels. With bilinear = true upscaling is interpolation and the
// bottleneck channel width is halved to compensate; otherwise upscaling is a
// learned transposed convolution.
func NewUNet(p *nn.Path, nChannels, nClasses int64, bilinear bool) *UNet {
	factor := int64(1)
	if bilinear {
		factor = 2
	}

	inc := base.DoubleConv(p.Sub("inc"), nChannels, 64)
	down1 := NewDown(p.Sub("down1"), 64, 128)
	down2 := NewDown(p.Sub("down2"), 128, 256)
	down3 := NewDown(p.Sub("down3"), 256, 512)
	down4 := NewDown(p.Sub("down4"), 512, 1024/factor)

	up1 := NewUp(p.Sub("up1"), 1024, 512/factor, bilinear)
	up2 := NewUp(p.Sub("up2"), 512, 256/factor, bilinear)
	up3 := NewUp(p.Sub("up3"), 256, 128/factor, bilinear)
	up4 := NewUp(p.Sub("up4"), 128, 64, bilinear)

	outc := NewOutConv(p.Sub("outc"), 64, nClasses)

	return &UNet{
		NChannels: nChannels,
		NClasses:  nClasses,
		Bilinear:  bilinear,
		Inc:       inc,
		Down1:     down1,
		Down2:     down2,
		Down3:     down3,
		Down4:     down4,
		Up1:       up1,
		Up2:       up2,
		Up3:       up3,
		Up4:       up4,
		OutC:      outc,
	}
}

// DefaultUNet creates a UNet with 3 input channels, 1 output class,
// using bilinear mode.
func DefaultUNet(p *nn.Path) *UNet {
	return NewUNet(p, 3, 1, true)
}

// ForwardT implements ts.ModuleT for UNet model.
func (m *UNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	x1 := m.Inc.ForwardT(x, train)    // [B   64 H    W   ]
	x2 := m.Down1.ForwardT(x1, train) // [B  128 H/2  W/2 ]
	x3 := m.Down2.ForwardT(x2, train) // [B  256 H/4  W/4 ]
	x4 := m.Down3.ForwardT(x3, train) // [B  512 H/8  W/8 ]
	x5 := m.Down4.ForwardT(x4, train) // [B 1024 H/16 W/16]

	z1 := m.Up1.UpForward(x5, x4, train) // [B 512 H/8 W/8]
	z2 := m.Up2.UpForward(z1, x3, train) // [B 256 H/4 W/4]
	z3 := m.Up3.UpForward(z2, x2, train) // [B 128 H/2 W/2]
	z4 := m.Up4.UpForward(z3, x1, train) // [B  64 H/1 W/1]

	out := m.OutC.ForwardT(z4, train) // [B nClasses H W]

	x1.MustDrop()
	x2.MustDrop()
	x3.MustDrop()
	x4.MustDrop()
	x5.MustDrop()
	z1.MustDrop()
	z2.MustDrop()
	z3.MustDrop()
	z4.MustDrop()

	return out
}

// AvgPoolUNet is a UNet variant that downsamples with average pooling
// instead of max pooling. Same topology, same shape contract.
type AvgPoolUNet struct {
	NChannels int64
	NClasses  int64
	Bilinear  bool

	Inc *nn.SequentialT

	Down1 *AvgDown
	Down2 *AvgDown
	Down3 *AvgDown
	Down4 *AvgDown

	Up1 *Up
	Up2 *Up
	Up3 *Up
	Up4 *Up

	OutC *OutConv
}

// NewAvgPoolUNet creates an AvgPoolUNet.
func NewAvgPoolUNet(p *nn.Path, nChannels, nClasses int64, bilinear bool) *AvgPoolUNet {
	factor := int64(1)
	if bilinear {
		factor = 2
	}

	inc := base.DoubleConv(p.Sub("inc"), nChannels, 64)
	down1 := NewAvgDown(p.Sub("down1"), 64, 128)
	down2 := NewAvgDown(p.Sub("down2"), 128, 256)
	down3 := NewAvgDown(p.Sub("down3"), 256, 512)
	down4 := NewAvgDown(p.Sub("down4"), 512, 1024/factor)

	up1 := NewUp(p.Sub("up1"), 1024, 512/factor, bilinear)
	up2 := NewUp(p.Sub("up2"), 512, 256/factor, bilinear)
	up3 := NewUp(p.Sub("up3"), 256, 128/factor, bilinear)
	up4 := NewUp(p.Sub("up4"), 128, 64, bilinear)

	outc := NewOutConv(p.Sub("outc"), 64, nClasses)

	return &AvgPoolUNet{
		NChannels: nChannels,
		NClasses:  nClasses,
		Bilinear:  bilinear,
		Inc:       inc,
		Down1:     down1,
		Down2:     down2,
		Down3:     down3,
		Down4:     down4,
		Up1:       up1,
		Up2:       up2,
		Up3:       up3,
		Up4:       up4,
		OutC:      outc,
	}
}

// ForwardT implements ts.ModuleT for AvgPoolUNet model.
func (m *AvgPoolUNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	x1 := m.Inc.ForwardT(x, train)
	x2 := m.Down1.ForwardT(x1, train)
	x3 := m.Down2.ForwardT(x2, train)
	x4 := m.Down3.ForwardT(x3, train)
	x5 := m.Down4.ForwardT(x4, train)

	z1 := m.Up1.UpForward(x5, x4, train)
	z2 := m.Up2.UpForward(z1, x3, train)
	z3 := m.Up3.UpForward(z2, x2, train)
	z4 := m.Up4.UpForward(z3, x1, train)

	out := m.OutC.ForwardT(z4, train)

	x1.MustDrop()
	x2.MustDrop()
	x3.MustDrop()
	x4.MustDrop()
	x5.MustDrop()
	z1.MustDrop()
	z2.MustDrop()
	z3.MustDrop()
	z4.MustDrop()

	return out
}
