package engine

// Metadata describes an archive as reported by the engine. All fields are set
// by the engine during Inspect and are only meaningful after a successful open.
type Metadata struct {
	Locked         bool
	Signed         bool
	RecoveryRecord bool
	Solid          bool
	HasComment     bool
	Volume         bool
	FirstVolume    bool
	Comment        string

	// Encrypted is set when headers or entries need a password.
	Encrypted bool

	// Items is the number of entries seen while listing.
	Items int

	// Volumes lists the volume files that make up the archive, when the
	// engine knows them.
	Volumes []string
}

// DefaultMetadata is the state of Metadata before an archive is opened.
// FirstVolume starts out true, as it does in libunrar.
func DefaultMetadata() Metadata {
	return Metadata{FirstVolume: true}
}
