package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// readImage reads image from file.
func readImage(filename string) (image.Image, error) {
	ext := filepath.Ext(filename)
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".png", ".PNG":
		return png.Decode(f)
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return jpeg.Decode(f)
	case ".tiff", ".tif", ".TIFF", ".TIF":
		return tiff.Decode(f)
	default:
		err = fmt.Errorf("Unsupported image format: %v\n", ext)
		return nil, err
	}
}

// savePNG writes image to a PNG file, creating parent directories as needed.
func savePNG(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

// pngName swaps a file name's extension for .png, with an optional suffix
// before the extension.
func pngName(filename, suffix string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ".png"
}

// prepTile resizes an image to the tile size.
func prepTile(img image.Image, tileSize int) image.Image {
	return resize.Resize(uint(tileSize), uint(tileSize), img, resize.Lanczos3)
}

// sideBySide composes two images into one preview, left at original size,
// right rescaled to the left's bounds.
func sideBySide(left, right image.Image) *image.RGBA {
	lb := left.Bounds()
	rec := image.Rect(0, 0, 2*lb.Dx(), lb.Dy())
	dst := image.NewRGBA(rec)

	draw.Draw(dst, image.Rect(0, 0, lb.Dx(), lb.Dy()), left, lb.Min, draw.Src)
	draw.CatmullRom.Scale(dst, image.Rect(lb.Dx(), 0, 2*lb.Dx(), lb.Dy()), right, right.Bounds(), draw.Src, nil)

	return dst
}

// runPrep reads the manifest and writes paired training tiles:
// resized PNG copies of each input/target image, plus horizontally
// flipped copies when augmentation is on.
func runPrep() {
	pairs, err := readManifest(ManifestPath)
	if err != nil {
		log.Fatal(err)
	}

	inputDir := filepath.Join(DataPath, "tile", "input")
	targetDir := filepath.Join(DataPath, "tile", "target")

	count := 0
	for _, pair := range pairs {
		inputImg, err := readImage(pair.Input)
		if err != nil {
			log.Fatal(err)
		}
		targetImg, err := readImage(pair.Target)
		if err != nil {
			log.Fatal(err)
		}

		inputTile := prepTile(inputImg, TileSize)
		targetTile := prepTile(targetImg, TileSize)

		name := pngName(pair.Input, "")
		if err := savePNG(inputTile, filepath.Join(inputDir, name)); err != nil {
			log.Fatal(err)
		}
		if err := savePNG(targetTile, filepath.Join(targetDir, name)); err != nil {
			log.Fatal(err)
		}
		count++

		if Augment {
			flipName := pngName(pair.Input, "_fliph")
			if err := savePNG(imaging.FlipH(inputTile), filepath.Join(inputDir, flipName)); err != nil {
				log.Fatal(err)
			}
			if err := savePNG(imaging.FlipH(targetTile), filepath.Join(targetDir, flipName)); err != nil {
				log.Fatal(err)
			}
			count++
		}
	}

	fmt.Printf("Prepared %v tile pairs at %v\n", count, filepath.Join(DataPath, "tile"))
}
