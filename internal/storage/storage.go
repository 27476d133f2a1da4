package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	ds "github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/rogpeppe/go-internal/lockedfile"
	"go.uber.org/multierr"
)

var log = logging.Logger("unrar/storage")

// LockFile 是存储目录中的进程锁文件，内容为持有者的 pid。
const LockFile = ".storage.lock"

// Storage 是一个打开的存储目录。
type Storage struct {
	mu       sync.Mutex
	closed   atomic.Bool
	path     string
	lockFile *lockedfile.File
	ds       Datastore
}

// Open 打开（必要时初始化）path 处的存储。
//
// 首次打开时写入默认的 datastore_spec；之后每次打开都会校验磁盘上的配置
// 与当前配置一致。path 支持 ~ 展开。
func Open(path string) (*Storage, error) {
	return OpenWithSpec(path, DefaultDiskSpec())
}

// OpenWithSpec 与 Open 相同，但使用给定的配置。
func OpenWithSpec(path string, spec DiskSpec) (*Storage, error) {
	s, err := newStorage(path)
	if err != nil {
		return nil, err
	}

	dsc, err := AnyDatastoreConfig(spec)
	if err != nil {
		return nil, err
	}

	if err := Writable(s.path); err != nil {
		return nil, err
	}
	if err := initSpec(s.path, dsc); err != nil {
		return nil, err
	}

	if err := s.lock(); err != nil {
		return nil, err
	}
	if err := s.openDatastore(dsc); err != nil {
		_ = s.unlock()
		return nil, err
	}

	log.Debugw("storage opened", "path", s.path)
	return s, nil
}

func newStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	expanded, err := homedir.Expand(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return &Storage{path: expanded}, nil
}

func initSpec(root string, dsc DatastoreConfig) error {
	specPath := DatastoreSpecPath(root)
	if FileExists(specPath) {
		return nil
	}
	if err := os.WriteFile(specPath, dsc.DiskSpec().Bytes(), 0o600); err != nil {
		return &StorageError{Operation: "write spec", Path: specPath, Err: err}
	}
	return nil
}

// lock 创建锁文件并写入 pid。残留的锁文件（上次异常退出）会被替换。
func (s *Storage) lock() error {
	lockPath := filepath.Join(s.path, LockFile)

	file, err := lockedfile.Create(lockPath)
	if err != nil {
		if !os.IsExist(err) {
			return &LockError{Path: lockPath, Err: err}
		}
		if err := os.Remove(lockPath); err != nil {
			return &LockError{Path: lockPath, Err: fmt.Errorf("remove stale lock: %w", err)}
		}
		if file, err = lockedfile.Create(lockPath); err != nil {
			return &LockError{Path: lockPath, Err: err}
		}
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(lockPath)
		return &LockError{Path: lockPath, Err: err}
	}

	s.lockFile = file
	return nil
}

func (s *Storage) unlock() error {
	if s.lockFile == nil {
		return nil
	}

	lockPath := s.lockFile.Name()
	err := s.lockFile.Close()
	if rmErr := os.Remove(lockPath); rmErr != nil && !os.IsNotExist(rmErr) {
		err = multierr.Append(err, rmErr)
	}
	s.lockFile = nil
	return err
}

func (s *Storage) openDatastore(dsc DatastoreConfig) error {
	onDisk, err := s.readSpec()
	if err != nil {
		return err
	}
	if want := dsc.DiskSpec().String(); onDisk != want {
		return &StorageError{
			Operation: "open datastore",
			Path:      s.path,
			Err:       fmt.Errorf("%w: on disk '%s', configured '%s'", ErrSpecMismatch, onDisk, want),
		}
	}

	d, err := dsc.Create(s.path)
	if err != nil {
		return &StorageError{Operation: "open datastore", Path: s.path, Err: err}
	}
	s.ds = d
	return nil
}

func (s *Storage) readSpec() (string, error) {
	b, err := os.ReadFile(DatastoreSpecPath(s.path))
	if err != nil {
		return "", &StorageError{Operation: "read spec", Path: s.path, Err: err}
	}
	return strings.TrimSpace(string(b)), nil
}

// Path 返回展开后的存储目录。
func (s *Storage) Path() string {
	return s.path
}

// Datastore 返回根存储。关闭之后返回 nil。
func (s *Storage) Datastore() Datastore {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil
	}
	return s.ds
}

// Usage 返回存储占用的磁盘字节数。
func (s *Storage) Usage(ctx context.Context) (uint64, error) {
	d := s.Datastore()
	if d == nil {
		return 0, ErrClosed
	}
	return ds.DiskUsage(ctx, d)
}

// Close 关闭存储并释放锁。重复调用是安全的。
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if s.ds != nil {
		err = multierr.Append(err, s.ds.Close())
	}
	err = multierr.Append(err, s.unlock())
	if err != nil {
		return &StorageError{Operation: "close", Path: s.path, Err: err}
	}
	return nil
}

// Destroy 关闭存储并删除整个目录。
func (s *Storage) Destroy() error {
	if err := s.Close(); err != nil {
		return err
	}
	return os.RemoveAll(s.path)
}
