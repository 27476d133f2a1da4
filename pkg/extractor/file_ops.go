package extractor

import (
	"io/fs"
	"os"
	"path/filepath"
)

// fileInfo holds information about a file system entry
type fileInfo struct {
	os.FileInfo
	exists bool
}

// getPathInfo returns information about a path. If the path doesn't exist,
// exists will be false and info will be nil. If there's an error other than
// "not exist", the error is returned.
func getPathInfo(path string) (info fileInfo, err error) {
	fi, err := os.Lstat(path)
	if err == nil {
		return fileInfo{FileInfo: fi, exists: true}, nil
	}
	if os.IsNotExist(err) {
		return fileInfo{exists: false}, nil
	}
	return fileInfo{}, err
}

// removePath removes a file system path. If the path is a directory, all contents
// are removed recursively. Returns an error if the removal fails.
func removePath(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return pathErr("remove", path, err)
	}
	return nil
}

// createParentDirectories creates all parent directories for the given path.
// Returns an error if directory creation fails.
func createParentDirectories(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return pathErr("mkdir", dir, err)
	}
	return nil
}

// filePerm keeps the permission bits of mode, falling back to filePermissions.
func filePerm(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm
	}
	return filePermissions
}
