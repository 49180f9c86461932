package storage

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

const (
	// InstallDirName 是根目录下存放各版本的目录。
	InstallDirName = "java-versions"
	// DownloadsDirName 是安装目录下的临时下载目录，每次运行都会被清空。
	DownloadsDirName = ".downloads"
	// AliasesDirName 是根目录下存放别名符号链接的目录。
	AliasesDirName = "aliases"
	// DefaultAlias 是标记当前默认版本的保留别名。
	DefaultAlias = "default"
	// CanonicalDirName 是版本目录内解包后的固定子目录名。
	CanonicalDirName = "installation"
)

// LocalStorage 定义工作流依赖的本地存储能力。
type LocalStorage interface {
	InstallDir() string
	DownloadsDir() string
	AliasesDir() string
	InstallPath(v models.Version) string
	EnsureLayout() error
	PurgeDownloads() error
	InstalledVersions() ([]models.InstalledVersion, error)
	FindByNumericVersion(n int) (models.InstalledVersion, bool, error)
}

var _ LocalStorage = (*FileStorage)(nil)

// FileStorage 描述 jvc 在文件系统上的目录布局，并负责枚举已安装版本。
type FileStorage struct {
	root         string
	installDir   string
	downloadsDir string
	aliasesDir   string
}

// NewFileStorage 基于配置构造目录布局，RootDir 为空时退回到临时目录。
func NewFileStorage(cfg models.Config) *FileStorage {
	root := cfg.RootDir
	if root == "" {
		root = filepath.Join(os.TempDir(), "jvc")
	}
	installDir := filepath.Join(root, InstallDirName)
	return &FileStorage{
		root:         root,
		installDir:   installDir,
		downloadsDir: filepath.Join(installDir, DownloadsDirName),
		aliasesDir:   filepath.Join(root, AliasesDirName),
	}
}

// Root 返回 jvc 根目录。
func (s *FileStorage) Root() string { return s.root }

// InstallDir 返回版本安装根目录。
func (s *FileStorage) InstallDir() string { return s.installDir }

// DownloadsDir 返回下载目录。
func (s *FileStorage) DownloadsDir() string { return s.downloadsDir }

// AliasesDir 返回别名目录。
func (s *FileStorage) AliasesDir() string { return s.aliasesDir }

// DefaultAliasPath 返回 default 别名的路径。
func (s *FileStorage) DefaultAliasPath() string {
	return filepath.Join(s.aliasesDir, DefaultAlias)
}

// InstallPath 返回指定版本的安装目录。
func (s *FileStorage) InstallPath(v models.Version) string {
	return filepath.Join(s.installDir, v.DiskName())
}

// EnsureLayout 创建根目录、安装目录、下载目录与别名目录。
func (s *FileStorage) EnsureLayout() error {
	for _, dir := range []string{s.root, s.installDir, s.downloadsDir, s.aliasesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.CodeIO, err, "storage: create %s", dir)
		}
	}
	return nil
}

// PurgeDownloads 删除整个下载目录，目录不存在时视为成功。
func (s *FileStorage) PurgeDownloads() error {
	if err := os.RemoveAll(s.downloadsDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(errs.CodeIO, err, "storage: purge %s", s.downloadsDir)
	}
	return nil
}
