package version

import (
	"context"
	"io"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/neculai-stanciu/jvc/internal/archive"
	"github.com/neculai-stanciu/jvc/internal/remote"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// Installer 负责把远程版本下载并安装到本地。
type Installer struct {
	storage  storage.LocalStorage
	client   remote.PackageClient
	logger     *log.Logger
	progress   archive.ProgressFunc
	downloaded func()
}

// InstallerOption 配置 Installer。
type InstallerOption func(*Installer)

// WithLogger 指定日志输出。
func WithLogger(l *log.Logger) InstallerOption {
	return func(i *Installer) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithDownloadedFunc 指定下载完成、开始解包之前的回调。
func WithDownloadedFunc(fn func()) InstallerOption {
	return func(i *Installer) {
		i.downloaded = fn
	}
}

// WithExtractProgress 指定解包进度回调。
func WithExtractProgress(fn archive.ProgressFunc) InstallerOption {
	return func(i *Installer) {
		i.progress = fn
	}
}

// NewInstaller 创建 Installer。
func NewInstaller(store storage.LocalStorage, client remote.PackageClient, opts ...InstallerOption) *Installer {
	i := &Installer{storage: store, client: client, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install 安装主版本 n。已完整安装的同号版本直接返回；残缺的安装需要先 remove。
// 下载或解包失败时不回滚，残留内容由下次运行的下载目录清理或 remove 处理。
func (i *Installer) Install(ctx context.Context, n int, req models.VersionRequirements) (models.InstalledVersion, error) {
	if i.storage == nil || i.client == nil {
		return models.InstalledVersion{}, errs.New(errs.CodeIO, "installer: missing dependencies")
	}

	existing, ok, err := i.storage.FindByNumericVersion(n)
	if err != nil {
		return models.InstalledVersion{}, err
	}
	if ok {
		if storage.IsComplete(existing) {
			i.logger.Info("version already installed", "version", existing.Name)
			return existing, nil
		}
		return models.InstalledVersion{}, errs.New(errs.CodeDirectoryContract,
			"installer: %s is incomplete, run `jvc remove %d` first", existing.Name, n)
	}

	if err := i.storage.EnsureLayout(); err != nil {
		return models.InstalledVersion{}, err
	}

	available, err := i.client.ListVersions(ctx, req)
	if err != nil {
		return models.InstalledVersion{}, err
	}
	want := strconv.Itoa(n)
	var selected *models.Version
	for idx := range available {
		if available[idx].Value == want {
			selected = &available[idx]
			break
		}
	}
	if selected == nil {
		return models.InstalledVersion{}, errs.New(errs.CodeResolution,
			"installer: version %d is not offered by %s", n, i.client.Provider())
	}

	i.logger.Info("downloading", "version", selected.Value, "provider", selected.Provider, "lts", selected.LTS)
	artifact, err := i.client.Download(ctx, *selected, req, i.storage.DownloadsDir())
	if err != nil {
		return models.InstalledVersion{}, err
	}

	if i.downloaded != nil {
		i.downloaded()
	}

	dest := i.storage.InstallPath(*selected)
	i.logger.Info("extracting", "package", artifact.PackageName, "dest", dest)
	if err := archive.Ingest(artifact.Path, artifact.PackageName, dest, archive.WithProgressFunc(i.progress)); err != nil {
		return models.InstalledVersion{}, err
	}
	if _, err := archive.Canonicalize(dest); err != nil {
		return models.InstalledVersion{}, err
	}

	installed := models.InstalledVersion{
		Name:    selected.DiskName(),
		Path:    dest,
		Version: artifact.Version,
	}
	i.logger.Info("installed", "version", installed.Name, "semver", artifact.Version.Semver)
	return installed, nil
}
