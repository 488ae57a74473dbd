package generator

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/teranos/contractgen/cml"
	"github.com/teranos/contractgen/errors"
)

// CheckResult holds the result of an up-to-date check.
type CheckResult struct {
	UpToDate    bool
	Differences []string // file names that are missing or differ
}

// Check regenerates every context against the files in dir and reports the
// files whose content would change. Nothing is written.
func Check(model *cml.Model, opts Options, dir string, contexts []string) (*CheckResult, error) {
	files, err := GenerateDir(model, opts, dir, contexts)
	if err != nil {
		return nil, err
	}

	var diffs []string
	for _, file := range files {
		path := filepath.Join(dir, file.FileName)
		current, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				diffs = append(diffs, file.FileName+" (missing)")
				continue
			}
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		if !bytes.Equal(current, []byte(file.Content)) {
			diffs = append(diffs, file.FileName)
		}
	}

	return &CheckResult{
		UpToDate:    len(diffs) == 0,
		Differences: diffs,
	}, nil
}
