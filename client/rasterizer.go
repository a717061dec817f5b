package client

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

var ErrNoImages = errors.New("no page images produced")

// PopplerRasterizer renders pages with pdftoppm at the requested DPI.
type PopplerRasterizer struct {
	binary string
}

// NewPopplerRasterizer locates pdftoppm; binary may be empty to search PATH.
func NewPopplerRasterizer(binary string) (*PopplerRasterizer, error) {
	if binary == "" {
		binary = "pdftoppm"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm not found: %w", err)
	}
	return &PopplerRasterizer{binary: path}, nil
}

func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "pdf_pages")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	args := []string{"-r", strconv.Itoa(dpi), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(maxPages))
	}
	args = append(args, pdfPath, filepath.Join(tempDir, "page"))

	cmd := exec.CommandContext(ctx, r.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %v: %s", err, string(out))
	}
	return loadImages(tempDir)
}

// EmbeddedImageRasterizer pulls the images embedded in each page with pdfcpu.
// Scanners usually store one full-page image per page, so this works without
// an external renderer, at the scanner's native resolution.
type EmbeddedImageRasterizer struct{}

func (EmbeddedImageRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "pdf_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var selectedPages []string
	if maxPages == 1 {
		selectedPages = []string{"1"}
	} else if maxPages > 1 {
		selectedPages = []string{"1-" + strconv.Itoa(maxPages)}
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(pdfPath, tempDir, selectedPages, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}
	return loadImages(tempDir)
}

// ChainRasterizer tries each rasterizer in order until one yields images.
type ChainRasterizer struct {
	steps []PageRasterizer
	log   zerolog.Logger
}

// PageRasterizer renders the first maxPages pages of a PDF (0 = all).
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error)
}

func NewChainRasterizer(log zerolog.Logger, steps ...PageRasterizer) *ChainRasterizer {
	return &ChainRasterizer{steps: steps, log: log}
}

func (c *ChainRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error) {
	var errs []error
	for _, step := range c.steps {
		images, err := step.Rasterize(ctx, pdfPath, dpi, maxPages)
		if err == nil && len(images) > 0 {
			return images, nil
		}
		if err == nil {
			err = ErrNoImages
		}
		c.log.Debug().Err(err).Str("file", filepath.Base(pdfPath)).Msgf("%T gave no pages", step)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, ErrNoImages
	}
	return nil, errors.Join(errs...)
}

// loadImages decodes every image in dir in file-name order.
func loadImages(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var images []image.Image
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}
