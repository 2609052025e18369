// Package sftpfs implements vpath.Backend over SSH/SFTP, adapted from the
// teacher's backend/sftp/sftp.go (connection handling, hash/size/rename
// mapping) and from original_source/src/tfm_ssh_config.py (host alias
// resolution via the user's SSH client configuration).
package sftpfs

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/pacer"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

const (
	minSleep      = 100 * time.Millisecond
	maxSleep      = 2 * time.Second
	decayConstant = 2
)

// Backend implements vpath.Backend over SSH/SFTP. One Backend instance is
// created per host alias and pooled for the life of the process (spec.md
// §4.1, "Connections are pooled per <user@host:port> tuple").
type Backend struct {
	alias  string
	pacer  *pacer.Pacer
	socket *controlSocket

	mu     sync.Mutex
	client *sftp.Client
	sshc   *ssh.Client
}

// New dials hostAlias, resolving its connection configuration from the
// invoking user's SSH client configuration, and returns a pooled Backend.
func New(hostAlias string) (*Backend, error) {
	cfg := resolveHost(hostAlias)
	sock, err := newControlSocket(hostAlias)
	if err != nil {
		return nil, fserrors.NetworkError(hostAlias, err)
	}
	b := &Backend{
		alias:  hostAlias,
		pacer:  pacer.New(pacer.MinSleep(minSleep), pacer.MaxSleep(maxSleep), pacer.DecayConstant(decayConstant)),
		socket: sock,
	}
	if err := b.connect(cfg); err != nil {
		sock.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) connect(cfg hostConfig) error {
	authMethods, err := authMethodsFor(cfg)
	if err != nil {
		return fserrors.PermissionDenied(b.alias, err)
	}
	clientCfg := &ssh.ClientConfig{
		User:            userOrCurrent(cfg.User),
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // host key pinning is an external collaborator (spec.md §1)
		Timeout:         30 * time.Second,
	}
	addr := fmt.Sprintf("%s:%d", cfg.HostName, cfg.Port)
	sshc, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return fserrors.NetworkError(b.alias, err)
	}
	client, err := sftp.NewClient(sshc)
	if err != nil {
		sshc.Close()
		return fserrors.NetworkError(b.alias, err)
	}
	b.mu.Lock()
	b.sshc = sshc
	b.client = client
	b.mu.Unlock()
	return nil
}

func userOrCurrent(user string) string {
	if user != "" {
		return user
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "root"
}

func authMethodsFor(cfg hostConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if cfg.IdentityFile != "" {
		if key, err := os.ReadFile(cfg.IdentityFile); err == nil {
			if signer, err := ssh.ParsePrivateKey(key); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}
	if agentConn, _, err := sshagent.New(); err == nil {
		if signers, err := agentConn.Signers(); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(func() ([]ssh.Signer, error) { return signers, nil }))
		}
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no SSH authentication method available for %q", cfg.HostName)
	}
	return methods, nil
}

func (b *Backend) Scheme() vpath.Scheme { return vpath.SchemeSSH }
func (b *Backend) ReadOnly() bool       { return false }

// Close tears down the pooled connection and removes the control socket.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		_ = b.client.Close()
	}
	if b.sshc != nil {
		_ = b.sshc.Close()
	}
	b.socket.Close()
	return nil
}

func (b *Backend) call(ctx context.Context, fn func(*sftp.Client) error) error {
	return b.pacer.Call(ctx, func() error {
		b.mu.Lock()
		c := b.client
		b.mu.Unlock()
		if c == nil {
			return fserrors.NetworkError(b.alias, fmt.Errorf("not connected"))
		}
		return fn(c)
	}, fserrors.Retriable)
}

func (b *Backend) Exists(ctx context.Context, raw string) bool {
	_, err := b.Stat(ctx, raw)
	return err == nil
}

func (b *Backend) Stat(ctx context.Context, raw string) (vpath.Stat, error) {
	var st vpath.Stat
	err := b.call(ctx, func(c *sftp.Client) error {
		fi, err := c.Lstat(raw)
		if err != nil {
			return mapSftpErr(raw, err)
		}
		st = statFromFileInfo(fi)
		return nil
	})
	return st, err
}

func statFromFileInfo(fi os.FileInfo) vpath.Stat {
	mode := fi.Mode()
	isSymlink := mode&os.ModeSymlink != 0
	st := vpath.Stat{
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
		Mode:      uint16(mode.Perm()),
		IsDir:     fi.IsDir(),
		IsSymlink: isSymlink,
	}
	st.IsFile = !st.IsDir && !isSymlink
	return st
}

func mapSftpErr(raw string, err error) error {
	if os.IsNotExist(err) || err == io.EOF {
		return fserrors.NotFound(raw, err)
	}
	if os.IsPermission(err) {
		return fserrors.PermissionDenied(raw, err)
	}
	return fserrors.NetworkError(raw, err)
}

// Iterdir filters "." and ".." explicitly — spec.md §4.1 calls this out by
// name for SSH: "rglob() MUST filter out . and .. returned by readdir,
// otherwise recursion does not terminate."
func (b *Backend) Iterdir(ctx context.Context, raw string) ([]vpath.Entry, error) {
	dir := raw
	if dir == "" {
		dir = "."
	}
	var entries []vpath.Entry
	err := b.call(ctx, func(c *sftp.Client) error {
		infos, err := c.ReadDir(dir)
		if err != nil {
			return mapSftpErr(raw, err)
		}
		entries = make([]vpath.Entry, 0, len(infos))
		for _, fi := range infos {
			name := fi.Name()
			if name == "." || name == ".." {
				continue
			}
			entries = append(entries, vpath.Entry{Name: name, Stat: statFromFileInfo(fi)})
		}
		return nil
	})
	return entries, err
}

func (b *Backend) Open(ctx context.Context, raw string, mode vpath.OpenMode) (io.ReadWriteCloser, error) {
	b.mu.Lock()
	c := b.client
	b.mu.Unlock()
	if c == nil {
		return nil, fserrors.NetworkError(raw, fmt.Errorf("not connected"))
	}
	if mode == vpath.ModeWrite {
		if err := mkdirAll(c, path.Dir(raw)); err != nil {
			return nil, err
		}
		f, err := c.Create(raw)
		if err != nil {
			return nil, mapSftpErr(raw, err)
		}
		return f, nil
	}
	f, err := c.Open(raw)
	if err != nil {
		return nil, mapSftpErr(raw, err)
	}
	return f, nil
}

func mkdirAll(c *sftp.Client, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}
	if err := c.MkdirAll(dir); err != nil {
		return fserrors.PermissionDenied(dir, err)
	}
	return nil
}

// Rename is atomic when both ends are on the same host, per spec.md §4.1.
func (b *Backend) Rename(ctx context.Context, raw, rawTarget string) error {
	return b.call(ctx, func(c *sftp.Client) error {
		if err := mkdirAll(c, path.Dir(rawTarget)); err != nil {
			return err
		}
		if err := c.Rename(raw, rawTarget); err != nil {
			return mapSftpErr(raw, err)
		}
		return nil
	})
}

func (b *Backend) Unlink(ctx context.Context, raw string) error {
	return b.call(ctx, func(c *sftp.Client) error {
		if err := c.Remove(raw); err != nil {
			return mapSftpErr(raw, err)
		}
		return nil
	})
}

func (b *Backend) Rmdir(ctx context.Context, raw string) error {
	return b.call(ctx, func(c *sftp.Client) error {
		if err := c.RemoveDirectory(raw); err != nil {
			return mapSftpErr(raw, err)
		}
		return nil
	})
}

func (b *Backend) Mkdir(ctx context.Context, raw string) error {
	return b.call(ctx, func(c *sftp.Client) error { return mkdirAll(c, raw) })
}

// controlSocket is the per-host coordination artifact spec.md §4.1/§6
// require: "A single persistent control socket per host is created under
// ~/.tfm/ssh_sockets/<hash>-<pid> (never /tmp ...). The socket path MUST
// stay under ~100 bytes."
type controlSocket struct {
	path string
	ln   net.Listener
}

func newControlSocket(hostAlias string) (*controlSocket, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := path.Join(home, ".tfm", "ssh_sockets")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	sum := sha1.Sum([]byte(hostAlias))
	hash := hex.EncodeToString(sum[:])[:8]
	name := fmt.Sprintf("tfm-ssh-%s-%d", hash, os.Getpid())
	sockPath := path.Join(dir, name)
	if len(sockPath) >= 100 {
		// The UNIX-domain socket path limit is ~104 bytes on most
		// platforms; refuse rather than place the socket anywhere else.
		return nil, fmt.Errorf("control socket path %q is %d bytes, over the 100-byte limit", sockPath, len(sockPath))
	}
	_ = os.Remove(sockPath)
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}
	return &controlSocket{path: sockPath, ln: ln}, nil
}

func (c *controlSocket) Close() {
	if c == nil {
		return
	}
	if c.ln != nil {
		_ = c.ln.Close()
	}
	_ = os.Remove(c.path)
}
