// Package distribute copies converted figure outputs into the shared
// manuscript directory and keeps receipts of what was delivered.
//
// Distribution is a plain overwrite copy. The manuscript service owns
// versioning; figkit only promises that what sits in the remote
// directory is byte-identical to the latest converted output.
package distribute

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/figkit/figkit/pkg/cache"
	"github.com/figkit/figkit/pkg/errors"
	"github.com/figkit/figkit/pkg/project"
)

// Options select which outputs to deliver.
type Options struct {
	PDF    bool
	PNG    bool
	DryRun bool // Report what would be copied without writing
}

// FileResult records one delivered file.
type FileResult struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Bytes  int64  `json:"bytes"`
	Hash   string `json:"hash"`
}

// Sync copies the figure's print outputs into destDir, overwriting
// whatever is there. Outputs that were never converted are skipped, a
// figure with nothing to deliver returns an empty result.
func Sync(fig project.Figure, destDir string, opts Options) ([]FileResult, error) {
	var patterns []string
	if opts.PDF {
		patterns = append(patterns, "*.pdf")
	}
	if opts.PNG {
		patterns = append(patterns, "*.png")
	}

	var srcs []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(filepath.Join(fig.OutputDir(), pat))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "globbing %s", fig.OutputDir())
		}
		srcs = append(srcs, matches...)
	}
	sort.Strings(srcs)

	if len(srcs) == 0 {
		return nil, nil
	}

	if !opts.DryRun {
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSyncFailed, err, "creating %s", destDir)
		}
	}

	results := make([]FileResult, 0, len(srcs))
	for _, src := range srcs {
		dst := filepath.Join(destDir, filepath.Base(src))
		res, err := copyFile(src, dst, opts.DryRun)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func copyFile(src, dst string, dryRun bool) (FileResult, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return FileResult{}, errors.Wrap(errors.ErrCodeSyncFailed, err, "reading %s", src)
	}

	res := FileResult{
		Source: src,
		Dest:   dst,
		Bytes:  int64(len(data)),
		Hash:   cache.Hash(data),
	}
	if dryRun {
		return res, nil
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return FileResult{}, errors.Wrap(errors.ErrCodeSyncFailed, err, "writing %s", dst)
	}
	return res, nil
}
