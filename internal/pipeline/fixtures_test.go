package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"segmentation-augmentor/internal/augment"
	"segmentation-augmentor/internal/config"
)

// fixture is a throwaway X/ y/ layout under t.TempDir().
type fixture struct {
	t    *testing.T
	root string
	cfg  config.Config
}

func newFixture(t *testing.T, transforms ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Input.ImageDir = filepath.Join(root, "X")
	cfg.Input.MaskDir = filepath.Join(root, "y")
	cfg.Output.ImageRoot = filepath.Join(root, "augmented_X")
	cfg.Output.MaskRoot = filepath.Join(root, "augmented_y")
	cfg.Augment.Engine = config.EngineNative
	cfg.Augment.Seed = 20240601

	kinds := map[string]string{
		"RandomBrightnessContrast": "brightness_contrast",
		"Defocus":                  "defocus",
		"GlassBlur":                "glass_blur",
		"ISONoise":                 "iso_noise",
		"ShiftScaleRotate":         "shift_scale_rotate",
	}
	for _, name := range transforms {
		cfg.Transforms = append(cfg.Transforms, augment.Spec{Name: name, Kind: kinds[name]})
	}

	require.NoError(t, os.MkdirAll(cfg.Input.ImageDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.Input.MaskDir, 0o755))
	return &fixture{t: t, root: root, cfg: cfg}
}

func (f *fixture) addImage(name string, w, h int) {
	f.t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 + x*4), G: uint8(30 + y*5), B: uint8(90 + (x+y)%60), A: 255})
		}
	}
	out, err := os.Create(filepath.Join(f.cfg.Input.ImageDir, name))
	require.NoError(f.t, err)
	defer out.Close()
	require.NoError(f.t, jpeg.Encode(out, img, &jpeg.Options{Quality: 95}))
}

// addMask writes three vertical label bands: 0, 1 and 2.
func (f *fixture) addMask(name string, w, h int) *image.Gray {
	f.t.Helper()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask.SetGray(x, y, color.Gray{Y: uint8(3 * x / w)})
		}
	}
	out, err := os.Create(filepath.Join(f.cfg.Input.MaskDir, name))
	require.NoError(f.t, err)
	defer out.Close()
	require.NoError(f.t, png.Encode(out, mask))
	return mask
}

func (f *fixture) addPair(id string, w, h int) *image.Gray {
	f.addImage("image_"+id+".jpg", w, h)
	return f.addMask("mask_"+id+".png", w, h)
}

func (f *fixture) writeFile(dir, name string, data []byte) {
	f.t.Helper()
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func (f *fixture) run(engine augment.Engine, reporter Reporter) *Summary {
	f.t.Helper()
	c, err := NewCoordinator(f.cfg, engine, reporter, nil)
	require.NoError(f.t, err)
	s, err := c.Run(context.Background())
	require.NoError(f.t, err)
	return s
}

// outputs lists every regular file under root, relative to it.
func outputs(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func decodeGray(t *testing.T, path string) *image.Gray {
	t.Helper()
	mask, err := NewLoader(nil).LoadMask(path)
	require.NoError(t, err)
	return mask
}

// recorder keeps every event it sees.
type recorder struct {
	mu       sync.Mutex
	plan     Plan
	cells    []CellEvent
	pairs    []PairEvent
	summary  *Summary
	onCell   func(CellEvent)
	finished int
}

func (r *recorder) RunStarted(p Plan) { r.plan = p }

func (r *recorder) CellFinished(e CellEvent) {
	r.mu.Lock()
	r.cells = append(r.cells, e)
	r.mu.Unlock()
	if r.onCell != nil {
		r.onCell(e)
	}
}

func (r *recorder) PairFinished(e PairEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = append(r.pairs, e)
}

func (r *recorder) RunFinished(s *Summary) {
	r.summary = s
	r.finished++
}

func (r *recorder) skipped() map[string]error {
	out := map[string]error{}
	for _, p := range r.pairs {
		if p.Skipped {
			out[p.PairID] = p.Err
		}
	}
	return out
}
