package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// specFileName 是存储目录中描述布局的文件名。
const specFileName = "datastore_spec"

// Writable 确保目录存在并且可以写入文件。
//
// 目录不存在时会创建（权限 0755），随后写入并同步一个探测文件来确认可写。
func Writable(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &StorageError{Operation: "create directory", Path: path, Err: err}
	}

	marker := filepath.Join(path, "._check_writable")
	f, err := os.Create(marker)
	if err != nil {
		return &StorageError{
			Operation: "check writability",
			Path:      path,
			Err:       fmt.Errorf("cannot create marker file: %w", err),
		}
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(marker)
	}()

	if err := f.Sync(); err != nil {
		return &StorageError{
			Operation: "check writability",
			Path:      path,
			Err:       fmt.Errorf("cannot sync marker file: %w", err),
		}
	}
	return nil
}

// DatastoreSpecPath 返回存储目录中 datastore_spec 的路径。
func DatastoreSpecPath(root string) string {
	return filepath.Join(root, specFileName)
}

// FileExists 报告文件是否存在且非空。空文件视为不存在，
// 这样写了一半的 datastore_spec 会被重新生成。
func FileExists(filename string) bool {
	fi, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return fi.Size() > 0
}

// resolvePath 把相对的 base 放到 root 下；绝对路径原样返回。
//
//	resolvePath("/home/user/.unrarx", "journal")  → "/home/user/.unrarx/journal"
//	resolvePath("/home/user/.unrarx", "/var/lib") → "/var/lib"
func resolvePath(root, base string) string {
	if filepath.IsAbs(base) {
		return base
	}
	return filepath.Join(root, base)
}
