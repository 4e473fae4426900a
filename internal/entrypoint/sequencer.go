// Package entrypoint implements the container bootstrap sequence: repair
// ownership on shared volumes, regenerate the static asset bundle, then
// replace this process with the long-running server so it receives
// signals directly.
//
// The first two steps are best effort. A volume that is missing or
// already correctly owned is normal, and a stale-but-present asset bundle
// beats a crashed container. Only the final exec is allowed to fail the
// boot.
package entrypoint

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Identity is an explicitly scoped uid/gid context for a step, rather
// than ambient process state. UID or GID of -1 leaves that part unchanged;
// a fully unset identity disables ownership handling.
type Identity struct {
	UID int
	GID int
}

// Unset reports whether the identity carries no uid or gid at all.
func (id Identity) Unset() bool {
	return id.UID < 0 && id.GID < 0
}

// NoIdentity disables ownership repair and chown-after-copy, for the
// multi-stage image variant where ownership is baked in at build time.
var NoIdentity = Identity{UID: -1, GID: -1}

type (
	ExecFunc  func(argv0 string, argv []string, envv []string) error
	ChownFunc func(path string, uid, gid int) error
)

// Sequencer brings a freshly started container to a servable state. Exec
// and Chown default to the real syscalls; tests substitute them.
type Sequencer struct {
	// Volumes are the mounted paths whose ownership may have been reset
	// to a privileged default between restarts.
	Volumes []string

	// Owner is the unprivileged identity the server runs as.
	Owner Identity

	// StaticSrc is the asset bundle shipped in the image; StaticRoot is
	// the shared volume the proxy serves from.
	StaticSrc  string
	StaticRoot string

	Exec  ExecFunc
	Chown ChownFunc
}

func NewSequencer(volumes []string, owner Identity, staticSrc, staticRoot string) *Sequencer {
	return &Sequencer{
		Volumes:    volumes,
		Owner:      owner,
		StaticSrc:  staticSrc,
		StaticRoot: staticRoot,
		Exec:       syscall.Exec,
		Chown:      os.Lchown,
	}
}

// Run executes the three steps strictly in order. It returns only if the
// final exec fails; on success the server process has replaced us.
func (s *Sequencer) Run(argv []string) error {
	s.RepairOwnership()
	s.CollectStatic()
	return s.Handoff(argv)
}

// RepairOwnership recursively re-owns every volume path to the server
// identity. All failures are logged and swallowed: a missing mount or an
// already-correct owner is a normal condition, and repair must never
// block startup.
func (s *Sequencer) RepairOwnership() {
	if s.Owner.Unset() {
		return
	}

	for _, root := range s.Volumes {
		err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			return s.Chown(path, s.Owner.UID, s.Owner.GID)
		})
		if err != nil {
			log.Printf("entrypoint: ownership repair on %s skipped: %v", root, err)
		}
	}
}

// CollectStatic replaces the asset bundle under StaticRoot with the one
// from StaticSrc. Old contents are cleared first so the result is exactly
// the current build, never a mixture. Failure is logged and swallowed.
func (s *Sequencer) CollectStatic() {
	if err := s.collectStatic(); err != nil {
		log.Printf("entrypoint: static regeneration failed (continuing): %v", err)
	}
}

func (s *Sequencer) collectStatic() error {
	if s.StaticSrc == "" || s.StaticRoot == "" {
		return nil
	}

	if _, err := os.Stat(s.StaticSrc); err != nil {
		return fmt.Errorf("static source: %w", err)
	}

	if err := os.MkdirAll(s.StaticRoot, 0o755); err != nil {
		return fmt.Errorf("create static root: %w", err)
	}

	// Clear the contents rather than the directory itself: StaticRoot is
	// usually a mount point that cannot be removed.
	entries, err := os.ReadDir(s.StaticRoot)
	if err != nil {
		return fmt.Errorf("read static root: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.StaticRoot, e.Name())); err != nil {
			return fmt.Errorf("clear stale assets: %w", err)
		}
	}

	if err := s.copyTree(s.StaticSrc, s.StaticRoot); err != nil {
		return err
	}

	log.Printf("entrypoint: static assets collected into %s", s.StaticRoot)
	return nil
}

func (s *Sequencer) copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if rel == "." {
			return s.chownAsOwner(target)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			if err := os.Mkdir(target, info.Mode().Perm()); err != nil && !os.IsExist(err) {
				return err
			}
		case info.Mode().IsRegular():
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			// Sockets, devices and symlinks have no business in an
			// asset bundle.
			return nil
		}

		return s.chownAsOwner(target)
	})
}

// chownAsOwner hands a freshly created entry to the server identity, so
// assets written while privileged stay writable after the drop. Best
// effort: in the fixed-low-privilege variant the chown is not permitted
// and not needed.
func (s *Sequencer) chownAsOwner(path string) error {
	if s.Owner.Unset() {
		return nil
	}
	_ = s.Chown(path, s.Owner.UID, s.Owner.GID)
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Handoff replaces the bootstrap process with the server command. The
// server becomes the container's top-level supervised process, receiving
// signals and propagating its exit code directly. This is the only step
// whose failure aborts the boot.
func (s *Sequencer) Handoff(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no server command to exec")
	}

	argv0, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("resolve server command %q: %w", argv[0], err)
	}

	if err := s.Exec(argv0, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", argv0, err)
	}
	return nil
}
