package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"resume-advisor/internal/config"
)

// 存储后端名称
const (
	StoreLocal = "local"
	StoreMinIO = "minio"
	StoreS3    = "s3"
)

var (
	// ErrObjectNotFound 对象不存在
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrInvalidKey key 为绝对路径或越出本地根目录
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// DocumentStore 把简历文档取到本地路径，供文本提取器读取
// 调用方必须在用完后执行 cleanup
type DocumentStore interface {
	Fetch(ctx context.Context, key string) (path string, cleanup func(), err error)
	Name() string
}

// 确保各实现满足 DocumentStore
var (
	_ DocumentStore = (*LocalDocumentStore)(nil)
	_ DocumentStore = (*MinIODocumentStore)(nil)
	_ DocumentStore = (*S3DocumentStore)(nil)
)

func noCleanup() {}

// LocalDocumentStore 直接使用本地文件系统
// root 为空时 key 即路径，只用于命令行；设置 root 后 key 必须是 root 下的相对路径
type LocalDocumentStore struct {
	root string
}

// NewLocalDocumentStore 创建本地存储
func NewLocalDocumentStore(root string) *LocalDocumentStore {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &LocalDocumentStore{root: root}
}

// Name 后端名称
func (s *LocalDocumentStore) Name() string { return StoreLocal }

// Fetch 返回文件路径，不做拷贝
func (s *LocalDocumentStore) Fetch(ctx context.Context, key string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", noCleanup, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return "", noCleanup, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", noCleanup, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return "", noCleanup, fmt.Errorf("访问本地文件失败: %w", err)
	}
	if info.IsDir() {
		return "", noCleanup, fmt.Errorf("%w: %s 是目录", ErrInvalidKey, key)
	}
	return path, noCleanup, nil
}

func (s *LocalDocumentStore) resolve(key string) (string, error) {
	if s.root == "" {
		return key, nil
	}
	if filepath.IsAbs(key) || filepath.VolumeName(key) != "" {
		return "", fmt.Errorf("%w: 不允许绝对路径 %q", ErrInvalidKey, key)
	}
	path := filepath.Join(s.root, key)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q 不在根目录内", ErrInvalidKey, key)
	}
	return path, nil
}

// NewDocumentStore 按名称创建存储后端
func NewDocumentStore(ctx context.Context, name string, cfg *config.Config) (DocumentStore, error) {
	switch name {
	case "", StoreLocal:
		return NewLocalDocumentStore(cfg.Local.Root), nil
	case StoreMinIO:
		return NewMinIODocumentStore(ctx, &cfg.MinIO)
	case StoreS3:
		return NewS3DocumentStore(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("未知的存储后端: %s", name)
	}
}

// spoolToTemp 把对象内容写入临时文件，返回路径和删除函数
func spoolToTemp(r io.Reader, key string) (string, func(), error) {
	ext := filepath.Ext(key)
	if ext == "" {
		ext = ".pdf"
	}
	f, err := os.CreateTemp("", "resume-*"+ext)
	if err != nil {
		return "", noCleanup, fmt.Errorf("创建临时文件失败: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", noCleanup, fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noCleanup, fmt.Errorf("关闭临时文件失败: %w", err)
	}
	return path, cleanup, nil
}
