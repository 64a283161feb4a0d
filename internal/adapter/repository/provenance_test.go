package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Move.toml"), []byte("[package]\nname = \"vault\"\n"), 0o644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("Move.toml")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestDescribeWorkTreeClean(t *testing.T) {
	dir := initRepoWithCommit(t)

	provenance, err := DescribeWorkTree(dir)
	require.NoError(t, err)
	assert.Regexp(t, `^git:[0-9a-f]{12}$`, provenance)
}

func TestDescribeWorkTreeDirty(t *testing.T) {
	dir := initRepoWithCommit(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sources.move"), []byte("module vault {}"), 0o644))

	provenance, err := DescribeWorkTree(dir)
	require.NoError(t, err)
	assert.Regexp(t, `^git:[0-9a-f]{12}\+dirty$`, provenance)
}

func TestDescribeWorkTreeNotARepository(t *testing.T) {
	_, err := DescribeWorkTree(t.TempDir())
	assert.Error(t, err)
}

func TestDescribeWorkTreeDetectsDotGitFromSubdir(t *testing.T) {
	dir := initRepoWithCommit(t)
	sub := filepath.Join(dir, "sources")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	provenance, err := DescribeWorkTree(sub)
	require.NoError(t, err)
	assert.Regexp(t, `^git:[0-9a-f]{12}`, provenance)
}
