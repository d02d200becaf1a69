package port

import "logsweep/internal/domain"

// FileWalker enumerates regular files under root. Directories and
// non-regular entries are never passed to visit.
type FileWalker interface {
	Walk(root string, recursive bool, visit func(domain.Candidate)) error
}
