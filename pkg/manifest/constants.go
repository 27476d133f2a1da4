package manifest

const (
	// Version is written into every manifest.
	Version = 1

	// hashBufferSize is the read buffer used while hashing a file.
	hashBufferSize = 1 << 20
)
