package version

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/neculai-stanciu/jvc/internal/alias"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// Remover 删除本地已安装的版本。
type Remover struct {
	storage storage.LocalStorage
	aliases *alias.Manager
	logger  *log.Logger
}

// NewRemover 创建 Remover，logger 为空时不输出日志。
func NewRemover(store storage.LocalStorage, aliases *alias.Manager, logger *log.Logger) *Remover {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Remover{storage: store, aliases: aliases, logger: logger}
}

// Remove 删除主版本 n。default 别名指向该版本时需要 force。
// 删除后仍指向它的别名会变成悬空别名，只记录警告。
func (r *Remover) Remove(n int, force bool) (models.InstalledVersion, error) {
	target, ok, err := r.storage.FindByNumericVersion(n)
	if err != nil {
		return models.InstalledVersion{}, err
	}
	if !ok {
		return models.InstalledVersion{}, errs.New(errs.CodeVersionNotInstalled, "version %d is not installed", n)
	}

	pointing, err := r.aliases.PointingAt(target.Path)
	if err != nil {
		return models.InstalledVersion{}, err
	}
	for _, a := range pointing {
		if a.Name == alias.DefaultName && !force {
			return models.InstalledVersion{}, errs.New(errs.CodeVersionInUse,
				"version %s is the default, pass --force to remove it", target.Name)
		}
	}

	if err := os.RemoveAll(target.Path); err != nil {
		return models.InstalledVersion{}, errs.Wrap(errs.CodeIO, err, "remover: remove %s", filepath.Base(target.Path))
	}
	for _, a := range pointing {
		r.logger.Warn("alias now points to a removed version", "alias", a.Name, "version", target.Name)
	}
	return target, nil
}
