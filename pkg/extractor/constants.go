package extractor

const (
	// defaultChunkSize is the default size of one copy chunk (64KB).
	// Every chunk is reported to the chunk callback.
	defaultChunkSize = 64 * 1024

	// maxChunkSize bounds WithChunkSize (4MB)
	maxChunkSize = 4 * 1024 * 1024

	// dirPermissions is the default permissions for directories (rwxr-xr-x)
	dirPermissions = 0o755

	// filePermissions is the default permissions for files (rw-r--r--)
	filePermissions = 0o644

	// partFileSuffix is the suffix used for temporary files during atomic writes
	partFileSuffix = ".part"
)
