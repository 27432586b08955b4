package main

import (
	"flag"
	"log"

	"github.com/sugarme/gotch"
)

// flag variables
var (
	DataPath     string
	ManifestPath string
	ModelPath    string
	ModelFrom    string
	OptStr       string
	Cuda         bool
	task         string
	Device       gotch.Device
)

// hyperparameters
var (
	NChannels int64   // model input channels
	NClasses  int64   // model output channels
	Bilinear  bool    // upscaling policy
	AvgPool   bool    // downsampling policy
	Augment   bool    // add flipped copies during prep
	TileSize  int     // image tile size
	LR        float64 // learning rate
	BatchSize int     // batch size
	ValidSize int     // number of tiles held out for validation
	Epochs    int     // number of training epochs
)

func init() {
	flag.StringVar(&DataPath, "input", "./input", "specify input data directory")
	flag.StringVar(&ManifestPath, "manifest", "./input/manifest.csv", "specify CSV manifest of input/target image pairs")
	flag.StringVar(&ModelPath, "model", "", "specify full path to model checkpoint '.gt' file")
	flag.StringVar(&ModelFrom, "from", "checkpoint", "specify how to load weights: 'checkpoint' or 'scratch'")
	flag.StringVar(&OptStr, "opt", "Adam", "specify optimizer: 'Adam' or 'SGD'")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not")
	flag.StringVar(&task, "task", "train", "specify task to run: 'prep', 'train', 'validate' or 'plot'")
	flag.Int64Var(&NChannels, "channels", 3, "specify number of model input channels")
	flag.Int64Var(&NClasses, "classes", 3, "specify number of model output channels")
	flag.BoolVar(&Bilinear, "bilinear", false, "specify whether upscaling uses bilinear interpolation")
	flag.BoolVar(&AvgPool, "avgpool", false, "specify whether downsampling uses average pooling")
	flag.BoolVar(&Augment, "augment", false, "specify whether prep adds horizontally flipped copies")
	flag.IntVar(&TileSize, "tile", 256, "specify tile image size")
	flag.Float64Var(&LR, "lr", 0.001, "specify learning rate")
	flag.IntVar(&BatchSize, "batch", 8, "specify batch size")
	flag.IntVar(&ValidSize, "validate", 16, "specify number of tiles held out for validation")
	flag.IntVar(&Epochs, "epochs", 10, "specify number of training epochs")
}

func main() {
	flag.Parse()

	Device = gotch.CPU
	if Cuda {
		Device = gotch.CudaIfAvailable()
	}

	switch task {
	case "prep":
		runPrep()
	case "train":
		runTrain()
	case "validate":
		runValidate()
	case "plot":
		runPlot()
	default:
		log.Fatalf("Invalid task option. Expected 'prep', 'train', 'validate' or 'plot'. Got: %v\n", task)
	}
}
