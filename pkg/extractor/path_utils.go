package extractor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tragoedia0722/unrar/pkg/helper"
)

// normalizeEntryName turns an archive entry name into a relative path below the
// extraction root. Both '/' and '\' separate components. Empty and "." parts
// are dropped, ".." is rejected, and every component goes through
// helper.CleanFilename.
func normalizeEntryName(entryName string) (string, error) {
	normalizedPath := strings.ReplaceAll(entryName, "\\", "/")
	pathParts := strings.Split(normalizedPath, "/")

	cleanedParts := make([]string, 0, len(pathParts))
	for _, part := range pathParts {
		if part == "" || part == "." {
			continue
		}

		if part == ".." {
			return "", badName(ErrPathTraversalAttempt, entryName)
		}

		cleanPart := helper.CleanFilename(part)
		if cleanPart == "" {
			return "", badName(ErrInvalidPathComponent, part)
		}
		cleanedParts = append(cleanedParts, cleanPart)
	}

	if len(cleanedParts) == 0 {
		return "", badName(ErrInvalidDirectoryEntry, entryName)
	}

	return filepath.Join(cleanedParts...), nil
}

// validateSymlinkTarget checks if a symlink target is valid.
// Valid targets must be relative paths that don't escape the current directory.
func validateSymlinkTarget(target string) bool {
	if target == "" {
		return false
	}
	targetPath := filepath.Clean(target)

	if filepath.IsAbs(targetPath) {
		return false
	}

	rel, err := filepath.Rel(".", targetPath)
	if err != nil {
		return false
	}

	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return false
	}

	return true
}

func isSubPath(path, base string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	absBase = filepath.Clean(absBase)

	return absPath == absBase || strings.HasPrefix(absPath, absBase+string(filepath.Separator))
}

// ensureNoSymlinkInPath fails when any existing component between basePath
// and targetPath is a symlink. basePath itself is trusted.
func ensureNoSymlinkInPath(basePath, targetPath string) error {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return pathErr("resolve", basePath, ErrPathTraversal)
	}
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return pathErr("resolve", targetPath, ErrPathTraversal)
	}

	absBase = filepath.Clean(absBase)
	absTarget = filepath.Clean(absTarget)

	if !isSubPath(absTarget, absBase) {
		return pathErr("resolve", targetPath, ErrPathTraversal)
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return pathErr("resolve", targetPath, ErrPathTraversal)
	}
	if rel == "." {
		return nil
	}

	currentPath := absBase
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		currentPath = filepath.Join(currentPath, part)
		info, err := os.Lstat(currentPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return pathErr("resolve", currentPath, ErrPathTraversal)
		}
	}

	return nil
}
