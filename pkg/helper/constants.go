package helper

const (
	// MaxFilenameLength 是 Windows 文件名最大长度（字节）
	MaxFilenameLength = 255

	// DefaultFilename 在清理结果为空时使用
	DefaultFilename = "unnamed_file"

	// ReservedSuffix 追加在保留设备名之后
	ReservedSuffix = "_file"

	// ArchiveExtension 是 RAR 归档的扩展名
	ArchiveExtension = ".rar"
)
