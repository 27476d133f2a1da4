package helper

import (
	"strings"
	"unicode/utf8"
)

// CleanFilename 清理单个文件名组件，使其可以安全地在 Windows 和 Unix 上创建
//
// 依次清理字符、处理保留名、截断长度。
// 结果为空时返回 DefaultFilename。
func CleanFilename(filename string) string {
	if filename == "" {
		return DefaultFilename
	}

	cleaned := HandleReservedNames(sanitize(filename))
	cleaned = TruncateFilename(cleaned, MaxFilenameLength)

	if cleaned == "" {
		return DefaultFilename
	}
	return cleaned
}

// TruncateFilename 将文件名截断到 maxLength 字节以内，尽量保留扩展名
// 截断位置不会落在多字节 UTF-8 字符中间
func TruncateFilename(filename string, maxLength int) string {
	if len(filename) <= maxLength {
		return filename
	}

	dotIndex := strings.LastIndex(filename, ".")
	if dotIndex <= 0 || dotIndex == len(filename)-1 {
		return truncateUTF8(filename, maxLength)
	}

	ext := filename[dotIndex:]
	name := filename[:dotIndex]

	maxNameLength := maxLength - len(ext)
	if maxNameLength < 1 {
		return truncateUTF8(filename, maxLength)
	}

	return truncateUTF8(name, maxNameLength) + ext
}

// truncateUTF8 返回 s 的前缀，长度不超过 n 字节且是有效的 UTF-8
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
