package analyzer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var reGitHubURL = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)

// Locate resolves a source locator to a directory on disk. A GitHub URL is
// shallow-cloned into a scratch directory (caller owns cleanup via the
// returned path); anything else must be an existing local directory.
func Locate(ctx context.Context, locator string, logger *zap.Logger) (dir string, cloned bool, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m := reGitHubURL.FindStringSubmatch(locator); m != nil {
		dir, err := Clone(ctx, locator, "", logger)
		return dir, true, err
	}
	info, err := os.Stat(locator)
	if err != nil {
		return "", false, fmt.Errorf("source not found: %w", err)
	}
	if !info.IsDir() {
		return "", false, fmt.Errorf("source %q is not a directory", locator)
	}
	return locator, false, nil
}

// Clone shallow-clones url into a fresh temp directory. With branch empty
// the remote's default is detected via ls-remote, preferring main, then
// master, then the first advertised head.
func Clone(ctx context.Context, url, branch string, logger *zap.Logger) (string, error) {
	m := reGitHubURL.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("invalid GitHub URL: %s", url)
	}
	repoName := m[2]

	dest, err := os.MkdirTemp("", "conversion-"+repoName+"-")
	if err != nil {
		return "", err
	}

	if branch == "" {
		branch = detectBranch(ctx, url, logger)
	}

	logger.Info("cloning repository",
		zap.String("url", url),
		zap.String("branch", branch),
		zap.String("dest", dest))

	cloneCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dest)

	out, err := exec.CommandContext(cloneCtx, "git", args...).CombinedOutput()
	if err != nil {
		os.RemoveAll(dest)
		return "", fmt.Errorf("git clone failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return dest, nil
}

func detectBranch(ctx context.Context, url string, logger *zap.Logger) string {
	lsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(lsCtx, "git", "ls-remote", "--heads", url).Output()
	if err != nil {
		logger.Warn("could not detect default branch", zap.Error(err))
		return "main"
	}
	heads := string(out)
	switch {
	case strings.Contains(heads, "refs/heads/main"):
		return "main"
	case strings.Contains(heads, "refs/heads/master"):
		return "master"
	}
	for _, line := range strings.Split(heads, "\n") {
		if i := strings.LastIndexByte(line, '/'); i >= 0 {
			return strings.TrimSpace(line[i+1:])
		}
	}
	return "main"
}
