package port

import "logsweep/internal/domain"

type Compressor interface {
	// Compress replaces path with a compressed artifact. When simulate is
	// true nothing on disk changes.
	Compress(path string, simulate bool) domain.CompressionResult

	// Suffix is the marker appended to produce artifact names.
	Suffix() string
}
