package vpath

import (
	"sync"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
)

// Registry is the application-wide home for backend instances. Paths carry
// only a key into the Registry (scheme, host, container), so Path remains a
// cheap value type even though the backend behind it may hold pooled
// network resources (spec.md §9, "Cyclic references").
//
// Exactly one Registry exists per running process; tests construct their
// own fresh Registry rather than sharing the global one (spec.md §9,
// "Global mutable state").
type Registry struct {
	mu sync.Mutex

	local Backend

	newSSH func(hostAlias string) (Backend, error)
	ssh    map[string]Backend

	newS3 func() (Backend, error)
	s3    Backend

	newArchive func(container Path) (Backend, error)
	archive    map[string]Backend
}

// NewRegistry builds an empty Registry. Backend factories are injected via
// the SetXxxFactory methods so that vpath itself has no import-time
// dependency on pkg/sftp, aws-sdk-go, or archive/zip.
func NewRegistry() *Registry {
	return &Registry{
		ssh:     make(map[string]Backend),
		archive: make(map[string]Backend),
	}
}

// SetLocal installs the local backend instance (there is only ever one).
func (r *Registry) SetLocal(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local = b
}

// SetSSHFactory installs the constructor used to lazily create (and pool)
// one backend per host alias.
func (r *Registry) SetSSHFactory(f func(hostAlias string) (Backend, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newSSH = f
}

// SetS3Factory installs the constructor used to lazily create the single
// shared S3 backend (the S3 client is stateless from the core's
// perspective, per spec.md §5, so one instance serves every bucket).
func (r *Registry) SetS3Factory(f func() (Backend, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newS3 = f
}

// SetArchiveFactory installs the constructor used to lazily create one
// backend per open archive container path.
func (r *Registry) SetArchiveFactory(f func(container Path) (Backend, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newArchive = f
}

// Local returns the local backend.
func (r *Registry) Local() (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local == nil {
		return nil, fserrors.InvalidArgument("local backend not configured", nil)
	}
	return r.local, nil
}

// SSH returns the pooled backend for hostAlias, constructing it on first
// use. One persistent connection (and control socket) is kept per host,
// per spec.md §4.1 "SSH backend specifics".
func (r *Registry) SSH(hostAlias string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.ssh[hostAlias]; ok {
		return b, nil
	}
	if r.newSSH == nil {
		return nil, fserrors.InvalidArgument("ssh backend not configured", nil)
	}
	b, err := r.newSSH(hostAlias)
	if err != nil {
		return nil, err
	}
	r.ssh[hostAlias] = b
	return b, nil
}

// S3 returns the shared S3 backend, constructing it on first use.
func (r *Registry) S3() (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.s3 != nil {
		return r.s3, nil
	}
	if r.newS3 == nil {
		return nil, fserrors.InvalidArgument("s3 backend not configured", nil)
	}
	b, err := r.newS3()
	if err != nil {
		return nil, err
	}
	r.s3 = b
	return b, nil
}

// Archive returns the backend for the archive rooted at container,
// constructing and caching it on first use. The cache key is the
// container's own URI string.
func (r *Registry) Archive(container Path) (Backend, error) {
	key := container.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.archive[key]; ok {
		return b, nil
	}
	if r.newArchive == nil {
		return nil, fserrors.InvalidArgument("archive backend not configured", nil)
	}
	b, err := r.newArchive(container)
	if err != nil {
		return nil, err
	}
	r.archive[key] = b
	return b, nil
}

// ForgetArchive drops the cached backend for container, forcing a re-read
// on next access. Used after an archive file is overwritten out from
// under an open handle.
func (r *Registry) ForgetArchive(container Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.archive, container.String())
}
