package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sugarme/gotch/dutil"
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/im2im/metric"
	"github.com/sugarme/im2im/unet"
)

func newModel(vs *nn.VarStore) ts.ModuleT {
	if AvgPool {
		return unet.NewAvgPoolUNet(vs.Root(), NChannels, NClasses, Bilinear)
	}
	return unet.NewUNet(vs.Root(), NChannels, NClasses, Bilinear)
}

func loadWeights(vs *nn.VarStore, fpath string, from string) {
	modelPath, err := filepath.Abs(fpath)
	if err != nil {
		log.Fatal(err)
	}

	switch from {
	case "checkpoint":
		err = vs.Load(modelPath)
		if err != nil {
			log.Fatal(err)
		}
	case "scratch":
		_, err = vs.LoadPartial(modelPath)
		if err != nil {
			log.Fatal(err)
		}
	default:
		err := fmt.Errorf("Invalid load option. Expected 'checkpoint' or 'scratch'. Got: %v\n", from)
		panic(err)
	}
}

// stackBatch stacks dataloader items into device tensors.
func stackBatch(items []InputTarget) (input, target *ts.Tensor) {
	var imgs, tgts []ts.Tensor
	for _, item := range items {
		imgs = append(imgs, item.input)
		tgts = append(tgts, item.target)
	}

	inputTs := ts.MustStack(imgs, 0)
	for _, x := range imgs {
		x.MustDrop()
	}
	targetTs := ts.MustStack(tgts, 0)
	for _, x := range tgts {
		x.MustDrop()
	}

	input = inputTs.MustTo(Device, true)
	target = targetTs.MustTo(Device, true)

	return input, target
}

func runTrain() {
	vs := nn.NewVarStore(Device)
	net := newModel(vs)
	if ModelPath != "" {
		loadWeights(vs, ModelPath, ModelFrom)
	}

	var opt *nn.Optimizer
	var err error
	switch OptStr {
	case "SGD":
		opt, err = nn.DefaultSGDConfig().Build(vs, LR)
		if err != nil {
			log.Fatal(err)
		}
	case "Adam":
		opt, err = nn.DefaultAdamConfig().Build(vs, LR)
		if err != nil {
			log.Fatal(err)
		}
	default:
		err = fmt.Errorf("Unspecified/Invalid Optimizer option: '%v'.\n", OptStr)
		log.Fatal(err)
	}

	fnames, err := listTiles()
	if err != nil {
		log.Fatal(err)
	}
	if len(fnames) <= ValidSize {
		log.Fatalf("Not enough tiles (%v) for a validation split of %v.\n", len(fnames), ValidSize)
	}
	validFiles := fnames[:ValidSize]
	trainFiles := fnames[ValidSize:]

	trainDS := NewPairDataset(trainFiles)
	s, err := dutil.NewBatchSampler(trainDS.Len(), BatchSize, true, true)
	if err != nil {
		log.Fatal(err)
	}
	trainDL, err := dutil.NewDataLoader(trainDS, s)
	if err != nil {
		log.Fatal(err)
	}

	for e := 0; e < Epochs; e++ {
		start := time.Now()
		trainDL.Reset()
		var losses []float64

		for trainDL.HasNext() {
			item, err := trainDL.Next()
			if err != nil {
				log.Fatal(err)
			}

			input, target := stackBatch(item.([]InputTarget))
			pred := net.ForwardT(input, true)
			loss := metric.L1Loss(pred, target)

			opt.BackwardStep(loss)

			losses = append(losses, loss.Float64Values()[0])
			loss.MustDrop()
			pred.MustDrop()
			input.MustDrop()
			target.MustDrop()
		}

		tloss := avg(losses)
		vloss, psnr := doValidate(net, validFiles)
		fmt.Printf("Epoch %02d\t train loss: %6.4f\t valid loss: %6.4f\t PSNR: %5.2fdB\t Taken time: %0.2fMin\n",
			e, tloss, vloss, psnr, time.Since(start).Minutes())

		if err := appendLossHistory(e, tloss, vloss, psnr); err != nil {
			log.Fatal(err)
		}
	}

	weightFile := filepath.Join(DataPath, "checkpoint", fmt.Sprintf("im2im-%v.gt", time.Now().Unix()))
	if err := os.MkdirAll(filepath.Dir(weightFile), 0755); err != nil {
		log.Fatal(err)
	}
	err = vs.Save(weightFile)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved checkpoint: %v\n", weightFile)
}

// appendLossHistory records one epoch's losses to the history CSV.
func appendLossHistory(epoch int, tloss, vloss, psnr float64) error {
	fname := filepath.Join(DataPath, "loss-history.csv")

	_, statErr := os.Stat(fname)
	f, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if os.IsNotExist(statErr) {
		if _, err := f.WriteString("epoch,train_loss,valid_loss,psnr\n"); err != nil {
			return err
		}
	}

	_, err = f.WriteString(fmt.Sprintf("%v,%v,%v,%v\n", epoch, tloss, vloss, psnr))
	return err
}

func avg(input []float64) float64 {
	var sum float64
	for _, v := range input {
		sum += v
	}

	return sum / float64(len(input))
}
