package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"mercator-hq/flowlog/pkg/config"
)

// SyncResult describes one Sync call.
type SyncResult struct {
	// Cloned is true when Sync performed the initial clone or open
	Cloned bool

	// FromSHA and ToSHA are HEAD before and after the sync
	FromSHA string
	ToSHA   string
}

// Changed reports whether the checkout moved.
func (r *SyncResult) Changed() bool {
	return r.Cloned || r.FromSHA != r.ToSHA
}

// Repository keeps a local checkout of a Git repository holding workflow
// files.
type Repository struct {
	cfg       *config.GitConfig
	localPath string
	auth      transport.AuthMethod
	logger    *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewRepository resolves authentication and the checkout location. Nothing
// touches the network until Sync.
func NewRepository(cfg *config.GitConfig, logger *slog.Logger) (*Repository, error) {
	if cfg == nil {
		return nil, errors.New("git config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, errors.New("git repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, errors.New("git branch cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	auth, err := gitAuth(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("git auth: %w", err)
	}

	localPath := cfg.LocalPath
	if localPath == "" {
		localPath = filepath.Join(os.TempDir(), config.DefaultGitLocalDir)
	}

	return &Repository{
		cfg:       cfg,
		localPath: localPath,
		auth:      auth,
		logger:    logger,
	}, nil
}

// LocalPath returns the checkout root.
func (r *Repository) LocalPath() string {
	return r.localPath
}

// WorkflowDir returns the directory inside the checkout that holds the
// workflow files.
func (r *Repository) WorkflowDir() string {
	return filepath.Join(r.localPath, r.cfg.Path)
}

// Sync clones the repository on first use and pulls on later calls.
func (r *Repository) Sync(ctx context.Context) (*SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		if err := r.cloneLocked(ctx); err != nil {
			return nil, err
		}
		head, err := r.headLocked()
		if err != nil {
			return nil, err
		}
		r.logger.Info("workflow repository ready",
			"repository", r.cfg.Repository,
			"branch", r.cfg.Branch,
			"path", r.localPath,
			"head", head,
		)
		return &SyncResult{Cloned: true, ToSHA: head}, nil
	}

	return r.pullLocked(ctx)
}

// Head returns the current HEAD commit SHA.
func (r *Repository) Head() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return "", errors.New("repository not synced")
	}
	return r.headLocked()
}

func (r *Repository) cloneLocked(ctx context.Context) error {
	if r.cfg.CleanOnStart {
		if err := os.RemoveAll(r.localPath); err != nil {
			return fmt.Errorf("failed to clean %q: %w", r.localPath, err)
		}
	}

	if _, err := os.Stat(filepath.Join(r.localPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.localPath, 0o755); err != nil {
		return fmt.Errorf("failed to create checkout directory: %w", err)
	}

	cloneCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.localPath, false, &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  r.cfg.Depth > 0,
		Depth:         r.cfg.Depth,
		Auth:          r.auth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", r.cfg.Repository, err)
	}

	r.repo = repo
	return nil
}

func (r *Repository) pullLocked(ctx context.Context) (*SyncResult, error) {
	from, err := r.headLocked()
	if err != nil {
		return nil, err
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    gogit.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  r.cfg.Depth > 0,
		Auth:          r.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	to, err := r.headLocked()
	if err != nil {
		return nil, err
	}

	if from != to {
		r.logger.Info("workflow repository updated", "from", from, "to", to)
	}
	return &SyncResult{FromSHA: from, ToSHA: to}, nil
}

func (r *Repository) headLocked() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, r.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// gitAuth maps the auth config to a go-git transport method. A nil method
// means anonymous access.
func gitAuth(cfg *config.GitAuthConfig) (transport.AuthMethod, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "token":
		if cfg.Token == "" {
			return nil, errors.New("token auth requires a token")
		}
		// Hosting providers accept any username with a token password.
		return &http.BasicAuth{Username: "git", Password: cfg.Token}, nil

	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, errors.New("ssh auth requires ssh_key_path")
		}
		info, err := os.Stat(cfg.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access SSH key: %w", err)
		}
		if perm := info.Mode().Perm(); perm&0o077 != 0 {
			return nil, fmt.Errorf("SSH key permissions too open (%o), should be 0600", perm)
		}
		keys, err := ssh.NewPublicKeysFromFile("git", cfg.SSHKeyPath, cfg.SSHKeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return keys, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}
