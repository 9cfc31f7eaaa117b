package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// FileOutcome is the outcome of validating one file from disk.
type FileOutcome struct {
	// FilePath is the file that was validated.
	FilePath string

	// Result holds the validation result. For format and read failures it
	// holds the single row-0 error produced by FileError.
	Result types.ValidationResult

	// Err is set when the file could not be opened, had an unsupported
	// format or could not be read. Row-level problems never set Err.
	Err error

	// Duration is the time spent on this file.
	Duration time.Duration
}

// Accepted reports whether the file passed validation without errors.
func (o FileOutcome) Accepted() bool {
	return o.Err == nil && o.Result.Valid
}

// ValidatePath opens path and validates it. Format detection uses the file
// name only.
func (p *Pipeline) ValidatePath(path string, cols types.RequiredColumnSet) FileOutcome {
	start := time.Now()
	outcome := FileOutcome{FilePath: path}

	name := filepath.Base(path)
	if _, err := DetectFormat(name, ""); err != nil {
		outcome.Err = err
		outcome.Result = FileError(err)
		outcome.Duration = time.Since(start)
		return outcome
	}

	f, err := os.Open(path)
	if err != nil {
		outcome.Err = &ReadError{Name: name, Err: fmt.Errorf("failed to open file: %w", err)}
		outcome.Result = FileError(outcome.Err)
		outcome.Duration = time.Since(start)
		return outcome
	}
	defer f.Close()

	result, err := p.ValidateFile(name, "", f, cols)
	if err != nil {
		outcome.Err = err
		result = FileError(err)
	}

	outcome.Result = result
	outcome.Duration = time.Since(start)
	return outcome
}

// DiscoverFiles expands the given paths into supported upload files.
// Directories are walked recursively; files are returned as given even when
// their extension is unsupported, so the caller reports them.
func DiscoverFiles(paths []string) ([]string, error) {
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}

		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if _, err := DetectFormat(path, ""); err == nil {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}

	return files, nil
}
