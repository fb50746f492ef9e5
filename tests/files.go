// Package tests provides the external test suites used by the emulator
// tests. They are downloaded on first use and cached next to this file.
package tests

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func decompress(zipFile, dest string) (int, error) {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return 0, fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}

		if err = os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return 0, err
		}
		if err := extract(f, fpath); err != nil {
			return 0, err
		}
	}
	return len(r.File), nil
}

func extract(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// download writes the resource at url to w.
func download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func downloadTestRoms(dest string) error {
	const url = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`

	tmpf, err := os.CreateTemp("", "nes-test-roms-*-.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())
	defer tmpf.Close()

	if err := download(context.Background(), url, tmpf); err != nil {
		return err
	}
	if _, err := decompress(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %w", err)
	}
	return nil
}

// download all 256 (one per opcode) Tom harte 6502 test files into dest dir.
func downloadTomHarteProcTests(dest string) error {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/nes6502/v1/%s.json`

	tempdir, err := os.MkdirTemp("", "tom.harte.processor.tests.*")
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		opstr := fmt.Sprintf("%02x", opcode)
		g.Go(func() error {
			f, err := os.Create(filepath.Join(tempdir, opstr+".json"))
			if err != nil {
				return err
			}
			defer f.Close()
			return download(ctx, fmt.Sprintf(urlfmt, opstr), f)
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		return fmt.Errorf("failed to download all files: %w", err)
	}
	return os.Rename(tempdir, dest)
}

func testsDir() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Dir(b)
}

type fixture struct {
	once sync.Once
	path string
	err  error
}

// get returns the fixture directory, downloading it once if needed. Tests
// using a fixture are skipped in short mode or if it can't be downloaded.
func (fx *fixture) get(tb testing.TB, dir string, fetch func(dest string) error) string {
	tb.Helper()
	if testing.Short() {
		tb.Skipf("skipping test using %s in short mode", dir)
	}

	fx.once.Do(func() {
		fx.path = filepath.Join(testsDir(), dir)
		if _, err := os.Stat(fx.path); !errors.Is(err, fs.ErrNotExist) {
			return
		}
		tb.Logf("%s not found, downloading it...", dir)
		fx.err = fetch(filepath.Dir(fx.path))
	})
	if fx.err != nil {
		tb.Skipf("%s unavailable: %v", dir, fx.err)
	}
	return fx.path
}

var roms, tomHarte fixture

// RomsPath returns the directory of the nes-test-roms suite.
func RomsPath(tb testing.TB) string {
	return roms.get(tb, "nes-test-roms", downloadTestRoms)
}

// TomHarteProcTestsPath returns the directory holding the single-step
// processor tests, one JSON file per opcode.
func TomHarteProcTestsPath(tb testing.TB) string {
	return tomHarte.get(tb, "tomharte.processor.tests", func(string) error {
		return downloadTomHarteProcTests(filepath.Join(testsDir(), "tomharte.processor.tests"))
	})
}
