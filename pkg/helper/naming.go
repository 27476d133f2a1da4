package helper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxUniqueAttempts 是 UniqueDir 尝试的最大编号
const maxUniqueAttempts = 10000

// ErrNoUniqueName 表示在 maxUniqueAttempts 次尝试内找不到未占用的名称
var ErrNoUniqueName = errors.New("no unused name available")

// ArchiveBaseName 从归档路径推导出解压目录名
//
// 去掉 .rar / .rNN 扩展名和分卷后缀 .partN，然后交给 CleanFilename 处理。
// 例如:
//
//	"/data/movie.part01.rar" -> "movie"
//	"backup.r00"             -> "backup"
//	"notes.txt"              -> "notes.txt"
func ArchiveBaseName(path string) string {
	name := filepath.Base(path)

	if ext := filepath.Ext(name); isArchiveExt(ext) {
		name = strings.TrimSuffix(name, ext)
	}

	lower := strings.ToLower(name)
	if i := strings.LastIndex(lower, ".part"); i > 0 && isDigits(lower[i+len(".part"):]) {
		name = name[:i]
	}

	return CleanFilename(name)
}

// UniqueDir 返回 parent 下一个尚不存在的路径
// 依次尝试 name, "name (1)", "name (2)" ...
func UniqueDir(parent, name string) (string, error) {
	candidate := filepath.Join(parent, name)
	for i := 1; i <= maxUniqueAttempts; i++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(parent, fmt.Sprintf("%s (%d)", name, i))
	}
	return "", fmt.Errorf("%w: %s", ErrNoUniqueName, filepath.Join(parent, name))
}

// isArchiveExt 判断扩展名是否为 .rar 或旧式分卷 .r00 - .r99
func isArchiveExt(ext string) bool {
	ext = strings.ToLower(ext)
	if ext == ArchiveExtension {
		return true
	}
	return len(ext) == 4 && ext[1] == 'r' && isDigits(ext[2:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
