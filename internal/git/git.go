// Package git provides an interface-based wrapper for the Git operations
// the publisher performs on the public metadata store, with context
// support and proper error handling.
package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Common Git errors
var (
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrEmptyMessage    = errors.New("commit message cannot be empty")
	ErrNoFiles         = errors.New("no files specified to stage")
	ErrGitInitFailed   = errors.New("git initialization failed")
	ErrInvalidRepo     = errors.New("invalid git repository")
	ErrTagExists       = errors.New("tag already exists")
)

// UserInfo identifies the commit author for store commits.
type UserInfo struct {
	Name  string
	Email string
}

// Git is the interface for store repository operations.
// Following Go best practices: accept interfaces, return structs.
type Git interface {
	InitRepo(ctx context.Context) error
	IsGitRepo(ctx context.Context) (bool, error)
	ConfigureUser(ctx context.Context, userInfo UserInfo) error
	Stage(ctx context.Context, files ...string) error
	Commit(ctx context.Context, msg string) (string, error)
	GetHeadCommit(ctx context.Context) (string, error)
	CreateTag(ctx context.Context, name, message string) error
	TagExists(ctx context.Context, name string) (bool, error)
	EnsureRemote(ctx context.Context, name, url string) error
	Push(ctx context.Context, remote, branch, tag, token string) error
}

// Client implements the Git interface over a repository path.
type Client struct {
	repoPath string
}

// NewClient creates a Git client for the given repository path.
func NewClient(repoPath string) *Client {
	return &Client{
		repoPath: repoPath,
	}
}

// InitRepo initializes a new git repository using go-git.
// Returns ErrGitInitFailed if initialization fails.
func (c *Client) InitRepo(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	_, err := gogit.PlainInit(c.repoPath, false)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrGitInitFailed, err.Error())
	}
	return nil
}

// IsGitRepo checks if the path is a valid git repository.
// Returns (true, nil) if valid, (false, nil) if not exists, (false, err) if corrupted.
func (c *Client) IsGitRepo(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	_, err := gogit.PlainOpen(c.repoPath)
	if err == gogit.ErrRepositoryNotExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidRepo, err.Error())
	}
	return true, nil
}

// ConfigureUser sets the author name and email in repository-local config.
// Global git config is never touched; the store carries its own identity.
func (c *Client) ConfigureUser(ctx context.Context, userInfo UserInfo) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("read repo config: %w", err)
	}

	cfg.User.Name = userInfo.Name
	cfg.User.Email = userInfo.Email

	if err := repo.Storer.SetConfig(cfg); err != nil {
		return fmt.Errorf("write repo config: %w", err)
	}

	return nil
}

// Stage adds files to the git staging area using go-git.
// Files are relative to the repository root.
func (c *Client) Stage(ctx context.Context, files ...string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	if len(files) == 0 {
		return ErrNoFiles
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	for _, file := range files {
		if _, err := worktree.Add(file); err != nil {
			return fmt.Errorf("stage file %s: %w", file, err)
		}
	}

	return nil
}

// Commit creates a git commit with the given message and returns its hash.
// The author comes from repository-local config set by ConfigureUser.
func (c *Client) Commit(ctx context.Context, msg string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	if msg == "" {
		return "", ErrEmptyMessage
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return "", fmt.Errorf("read repo config: %w", err)
	}

	hash, err := worktree.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  cfg.User.Name,
			Email: cfg.User.Email,
			When:  time.Now(),
		},
	})
	if err == gogit.ErrEmptyCommit {
		return "", ErrNothingToCommit
	}
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}

	return hash.String(), nil
}

// GetHeadCommit returns the commit hash of HEAD using go-git.
func (c *Client) GetHeadCommit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	return ref.Hash().String(), nil
}

// CreateTag creates an annotated tag pointing at HEAD.
// An already-existing tag is reported as ErrTagExists so the caller can
// treat re-releases as non-fatal.
func (c *Client) CreateTag(ctx context.Context, name, message string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("get HEAD: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("read repo config: %w", err)
	}

	_, err = repo.CreateTag(name, head.Hash(), &gogit.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  cfg.User.Name,
			Email: cfg.User.Email,
			When:  time.Now(),
		},
		Message: message,
	})
	if err == gogit.ErrTagExists {
		return fmt.Errorf("%w: %s", ErrTagExists, name)
	}
	if err != nil {
		return fmt.Errorf("create tag %s: %w", name, err)
	}

	return nil
}

// TagExists reports whether a tag with the given name exists.
func (c *Client) TagExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return false, fmt.Errorf("open repository: %w", err)
	}

	_, err = repo.Tag(name)
	if err == gogit.ErrTagNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up tag %s: %w", name, err)
	}
	return true, nil
}

// EnsureRemote creates the named remote if it does not exist.
func (c *Client) EnsureRemote(ctx context.Context, name, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil && err != gogit.ErrRemoteExists {
		return fmt.Errorf("create remote %s: %w", name, err)
	}
	return nil
}

// Push pushes the branch and tag to the remote, authenticating with the
// token over HTTPS. An up-to-date remote is not an error.
func (c *Client) Push(ctx context.Context, remote, branch, tag, token string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpen(c.repoPath)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	refSpecs := []gitconfig.RefSpec{
		gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
	}
	if tag != "" {
		refSpecs = append(refSpecs,
			gitconfig.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)))
	}

	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   refSpecs,
		Auth: &githttp.BasicAuth{
			// GitHub ignores the username when a token is supplied.
			Username: "uha-release",
			Password: token,
		},
	})
	if err == gogit.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return fmt.Errorf("push to %s: %w", remote, err)
	}
	return nil
}
