package store

import (
	"context"

	"github.com/zero-install/zeroinstall/archive"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/manifest"
	"github.com/zero-install/zeroinstall/zerr"
)

// Composite is an ordered list of stores (spec.md §4.D "Composite
// store"): contains/path probe in order, add goes to the first
// writable store, and remove/verify/optimise target whichever store
// actually holds the digest.
type Composite struct {
	Stores []*Store
}

func NewComposite(stores ...*Store) *Composite {
	return &Composite{Stores: stores}
}

func (c *Composite) Contains(digest manifest.Digest) bool {
	_, ok := c.Path(digest)
	return ok
}

func (c *Composite) Path(digest manifest.Digest) (string, bool) {
	for _, s := range c.Stores {
		if p, ok := s.Path(digest); ok {
			return p, true
		}
	}
	return "", false
}

// AddDirectory tries each writable store in order, logging and moving
// on past a failure rather than swallowing it, and returning success
// as soon as one store accepts the add (Open Question (a)).
func (c *Composite) AddDirectory(ctx context.Context, sourcePath string, expected manifest.Digest, handler Handler) error {
	return c.add(func(s *Store) error { return s.AddDirectory(ctx, sourcePath, expected, handler) }, ctx)
}

func (c *Composite) AddArchives(ctx context.Context, archives []archive.Source, expected manifest.Digest, handler Handler) error {
	return c.add(func(s *Store) error { return s.AddArchives(ctx, archives, expected, handler) }, ctx)
}

func (c *Composite) add(attempt func(*Store) error, ctx context.Context) error {
	var lastErr error
	tried := false
	for _, s := range c.Stores {
		if s.Kind != ReadWrite {
			continue
		}
		tried = true
		if err := attempt(s); err != nil {
			zlog.Get(ctx).WithError(err).Warnf("add to store %s failed, trying next", s.Root)
			lastErr = err
			continue
		}
		return nil
	}
	if !tried {
		return &zerr.PermissionDenied{Action: "add to store"}
	}
	return lastErr
}

func (c *Composite) Remove(ctx context.Context, digest manifest.Digest, handler Handler) (bool, error) {
	s, ok := c.owner(digest)
	if !ok {
		return false, nil
	}
	return s.Remove(ctx, digest, handler)
}

func (c *Composite) Verify(ctx context.Context, digest manifest.Digest, handler Handler) error {
	s, ok := c.owner(digest)
	if !ok {
		return &zerr.NotFound{Kind: "implementation", ID: digest.Best()}
	}
	return s.Verify(ctx, digest, handler)
}

// Optimise runs Optimise on every store in the list, logging and
// continuing past a failure in one store rather than aborting the
// rest.
func (c *Composite) Optimise(ctx context.Context, handler Handler) (int64, error) {
	var total int64
	for _, s := range c.Stores {
		saved, err := s.Optimise(ctx, handler)
		total += saved
		if err != nil {
			zlog.Get(ctx).WithError(err).Warnf("optimise: store %s failed, continuing", s.Root)
		}
	}
	return total, nil
}

func (c *Composite) owner(digest manifest.Digest) (*Store, bool) {
	for _, s := range c.Stores {
		if s.Contains(digest) {
			return s, true
		}
	}
	return nil, false
}
