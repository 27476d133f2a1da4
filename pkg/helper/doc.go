// Package helper 提供文件名清理和解压目录命名功能
//
// 本包主要用于处理归档条目中的文件名，使其符合 Windows 文件系统要求。
// 它可以安全地处理来自各种来源的文件名，包括不同操作系统创建的归档。
//
// 主要功能：
//
//   - 移除无效字符（<, >, :, ", /, \, |, ?, *, null 字符等）
//   - 移除控制字符和 Unicode 控制码
//   - 标准化空格字符（合并连续空格）
//   - 处理 Windows 保留的设备名（CON, PRN, AUX, NUL, COM1-9, LPT1-9）
//   - 截断过长的文件名（Windows 限制为 255 字节，不截断多字节字符）
//   - 由归档路径推导解压目录名，并避开已存在的目录
//
// 基本用法：
//
//	import "github.com/tragoedia0722/unrar/pkg/helper"
//
//	cleaned := helper.CleanFilename("test<>:file.txt")
//	// 结果: "test___file.txt"
//
//	cleaned = helper.CleanFilename("CON.txt")
//	// 结果: "CON_file.txt"
//
//	cleaned = helper.CleanFilename("测试文件.txt")
//	// 结果: "测试文件.txt" (保留 Unicode)
//
//	dir, err := helper.UniqueDir("/data", helper.ArchiveBaseName("movie.part1.rar"))
//	// 结果: "/data/movie"，已存在时为 "/data/movie (1)"
//
// 兼容性：
//
//   - 支持所有主流操作系统（Windows, Linux, macOS）
//   - 正确处理 Unicode 文件名
//   - 符合 Windows 文件系统要求
//
// Windows 文件名限制：
//
//   - 最大长度: 255 字符
//   - 不能包含: <, >, :, ", /, \, |, ?, *, 等
//   - 不能是保留设备名（不分大小写）: CON, PRN, AUX, NUL, COM1-9, LPT1-9
//   - 不能以空格或点结尾
//
// 测试：
//
// 运行测试：
//
//	go test ./pkg/helper/... -v
//
// 运行基准测试：
//
//	go test ./pkg/helper/... -bench=. -benchmem
package helper
