package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
)

const (
	cloneTimeout = 5 * time.Minute
	pullTimeout  = 2 * time.Minute
)

// Service manages local clones of tutorial repositories. It implements
// interfaces.RepoService using the git command, so only HTTP-accessible
// public repositories are supported.
type Service struct {
	reposDir string
	logger   arbor.ILogger
}

// NewService creates a repo service rooted at reposDir, creating it if needed
func NewService(reposDir string, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repos directory: %w", err)
	}

	return &Service{
		reposDir: reposDir,
		logger:   logger,
	}, nil
}

// localDir derives a stable local directory for a repo URL. The URL hash
// keeps directories unique when two repos share a name.
func (s *Service) localDir(repoURL string) string {
	urlHash := common.Fingerprint(repoURL)[:12]

	repoName := strings.TrimSuffix(repoURL, "/")
	if idx := strings.LastIndex(repoName, "/"); idx >= 0 {
		repoName = repoName[idx+1:]
	}
	repoName = strings.TrimSuffix(repoName, ".git")
	if repoName == "" {
		repoName = "repo"
	}

	return filepath.Join(s.reposDir, fmt.Sprintf("%s_%s", repoName, urlHash))
}

// Acquire clones the repository if it is not present locally, or pulls the
// latest changes if it is. Returns the local path and whether the working
// tree changed since the last acquire.
func (s *Service) Acquire(ctx context.Context, repoURL, branch string) (string, bool, error) {
	localPath := s.localDir(repoURL)

	if _, err := os.Stat(localPath); err == nil {
		return s.pull(ctx, localPath, branch)
	}

	return s.clone(ctx, repoURL, localPath, branch)
}

func (s *Service) clone(ctx context.Context, repoURL, localPath, branch string) (string, bool, error) {
	s.logger.Info().
		Str("repo_url", repoURL).
		Str("branch", branch).
		Str("local_path", localPath).
		Msg("Cloning repository")

	cloneCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch, "--single-branch")
	}
	args = append(args, repoURL, localPath)

	if _, err := runGit(cloneCtx, "", args...); err != nil {
		if branch == "" {
			return "", false, fmt.Errorf("git clone failed: %w", err)
		}

		// The requested branch may not exist; retry with the default branch
		s.logger.Warn().
			Str("branch", branch).
			Err(err).
			Msg("Clone with branch failed, retrying with default branch")

		os.RemoveAll(localPath)
		if _, err := runGit(cloneCtx, "", "clone", "--depth", "1", repoURL, localPath); err != nil {
			return "", false, fmt.Errorf("git clone failed: %w", err)
		}
	}

	s.logger.Info().Str("local_path", localPath).Msg("Clone completed")
	return localPath, true, nil
}

func (s *Service) pull(ctx context.Context, localPath, branch string) (string, bool, error) {
	s.logger.Info().Str("local_path", localPath).Msg("Pulling repository updates")

	pullCtx, cancel := context.WithTimeout(ctx, pullTimeout)
	defer cancel()

	oldHash := s.commitHash(pullCtx, localPath)

	args := []string{"pull", "origin"}
	if branch != "" {
		args = append(args, branch)
	}
	if _, err := runGit(pullCtx, localPath, args...); err != nil {
		// The tracked branch may differ from the requested one
		if _, err := runGit(pullCtx, localPath, "pull"); err != nil {
			return "", false, fmt.Errorf("git pull failed: %w", err)
		}
	}

	newHash := s.commitHash(pullCtx, localPath)
	hadUpdate := oldHash != newHash

	if hadUpdate {
		s.logger.Info().
			Str("old_commit", shortHash(oldHash)).
			Str("new_commit", shortHash(newHash)).
			Msg("Repository updated")
	} else {
		s.logger.Debug().Str("local_path", localPath).Msg("Repository already up to date")
	}

	return localPath, hadUpdate, nil
}

func (s *Service) commitHash(ctx context.Context, localPath string) string {
	out, err := runGit(ctx, localPath, "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// LocalPath returns the clone location for a repo URL if it exists
func (s *Service) LocalPath(repoURL string) (string, bool) {
	localPath := s.localDir(repoURL)
	if _, err := os.Stat(localPath); err != nil {
		return "", false
	}
	return localPath, true
}

// Remove deletes the local clone for a repo URL
func (s *Service) Remove(repoURL string) error {
	localPath := s.localDir(repoURL)
	if err := os.RemoveAll(localPath); err != nil {
		return fmt.Errorf("failed to remove clone: %w", err)
	}
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %s", err, msg)
		}
		return "", err
	}

	return stdout.String(), nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
