package main

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var frameExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".webp": true,
}

// dirFrames plays the images in a directory as camera frames, looping. A
// background goroutine decodes; NextFrame only swaps a pointer.
type dirFrames struct {
	files    []string
	interval time.Duration
	latest   atomic.Pointer[image.Image]
	fresh    atomic.Bool
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "frame directory")
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !frameExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no images in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func newDirFrames(dir string, fps float64) (*dirFrames, error) {
	files, err := listFrames(dir)
	if err != nil {
		return nil, err
	}
	if fps <= 0 {
		fps = 10
	}
	return &dirFrames{
		files:    files,
		interval: time.Duration(float64(time.Second) / fps),
	}, nil
}

func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// run decodes frames until ctx ends. Undecodable files are skipped.
func (d *dirFrames) run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for i := 0; ; i = (i + 1) % len(d.files) {
		if img, err := decodeFrame(d.files[i]); err == nil {
			d.latest.Store(&img)
			d.fresh.Store(true)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (d *dirFrames) NextFrame() (image.Image, bool) {
	if !d.fresh.Swap(false) {
		return nil, false
	}
	img := d.latest.Load()
	if img == nil {
		return nil, false
	}
	return *img, true
}
