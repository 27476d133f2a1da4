// Package validator checks an extracted tree against the manifest recorded
// when it was extracted.
package validator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tragoedia0722/unrar/pkg/manifest"
)

var ErrNoManifest = errors.New("no manifest to validate against")

type Validator struct {
	dir      string
	progress manifest.ProgressFunc
}

// Result lists the differences between a manifest and the tree on disk.
// Paths are relative and slash separated.
type Result struct {
	IsComplete   bool
	Missing      []string
	Mismatched   []string
	Extra        []string
	TotalSize    int64
	VerifiedSize int64
	ExpectedRoot string
	ActualRoot   string
	ErrorDetails []string
}

func NewValidator(dir string) *Validator {
	return &Validator{dir: dir}
}

// WithProgress reports rehashing progress of the tree on disk.
func (v *Validator) WithProgress(fn manifest.ProgressFunc) *Validator {
	v.progress = fn
	return v
}

// Validate rehashes dir and compares it with m.
func Validate(ctx context.Context, m *manifest.Manifest, dir string) (*Result, error) {
	return NewValidator(dir).Validate(ctx, m)
}

func (v *Validator) Validate(ctx context.Context, m *manifest.Manifest) (*Result, error) {
	if m == nil {
		return nil, ErrNoManifest
	}

	actual, err := manifest.NewBuilder(v.dir).WithProgress(v.progress).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("rehash %s: %w", v.dir, err)
	}

	result := &Result{
		Missing:      make([]string, 0),
		Mismatched:   make([]string, 0),
		Extra:        make([]string, 0),
		ErrorDetails: make([]string, 0),
		TotalSize:    m.Size,
		ExpectedRoot: m.Root,
		ActualRoot:   actual.Root,
	}

	want := m.Files()
	got := actual.Files()

	for path, expected := range want {
		// Lookup also sees directories and links, so a file replaced by one
		// counts as modified rather than missing.
		found, ok := actual.Lookup(path)
		switch {
		case !ok:
			result.Missing = append(result.Missing, path)
		case found.Cid != expected.Cid || found.Size != expected.Size:
			result.Mismatched = append(result.Mismatched, path)
			result.ErrorDetails = append(result.ErrorDetails,
				fmt.Sprintf("%s: want %s (%d bytes), have %s (%d bytes)", path, expected.Cid, expected.Size, found.Cid, found.Size))
		default:
			result.VerifiedSize += found.Size
		}
	}
	for path := range got {
		if _, ok := want[path]; !ok {
			result.Extra = append(result.Extra, path)
		}
	}

	sort.Strings(result.Missing)
	sort.Strings(result.Mismatched)
	sort.Strings(result.Extra)
	sort.Strings(result.ErrorDetails)

	result.IsComplete = len(result.Missing) == 0 && len(result.Mismatched) == 0
	return result, nil
}
