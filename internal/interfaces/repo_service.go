package interfaces

import (
	"context"

	"github.com/lectorhq/lector/internal/models"
)

// RepoService acquires tutorial sources from version control
type RepoService interface {
	// Acquire clones the repository on first use or pulls an existing clone.
	// Returns the local checkout path and whether the pull brought new commits.
	Acquire(ctx context.Context, repoURL, branch string) (localPath string, hadUpdate bool, err error)

	// Remove deletes the local clone for a repository, if present
	Remove(repoURL string) error
}

// DocumentScanner discovers ordered, fingerprinted markdown chapters under a root path
type DocumentScanner interface {
	Scan(rootPath string) ([]models.ContentUnit, error)
}
