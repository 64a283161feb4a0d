package repository

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// DescribeWorkTree summarizes the git state of a local package checkout so
// a report can record exactly which source produced the audited bytecode.
// The format is "git:<short-hash>" with a "+dirty" suffix when the work
// tree has uncommitted changes.
func DescribeWorkTree(path string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository at %s: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	short := head.Hash().String()[:12]

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("read worktree status: %w", err)
	}

	if !status.IsClean() {
		return "git:" + short + "+dirty", nil
	}
	return "git:" + short, nil
}
