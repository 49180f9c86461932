package version

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/neculai-stanciu/jvc/internal/alias"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
)

// Switcher 负责切换 default 别名指向的版本。
type Switcher struct {
	aliases *alias.Manager
	goos    string
}

// NewSwitcher 创建 Switcher。
func NewSwitcher(aliases *alias.Manager) *Switcher {
	return &Switcher{aliases: aliases, goos: runtime.GOOS}
}

// UseVersion 把 default 绑定到 selector（版本号或别名）对应的版本。
func (s *Switcher) UseVersion(selector string) (alias.Alias, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return alias.Alias{}, errs.New(errs.CodeInvalidVersion, "switcher: version or alias is required")
	}

	target, err := s.aliases.Resolve(selector)
	if err != nil {
		return alias.Alias{}, err
	}
	if err := s.ensureExecutable(target); err != nil {
		return alias.Alias{}, err
	}
	return s.aliases.CreateOrUpdate(alias.DefaultName, selector)
}

func (s *Switcher) ensureExecutable(versionDir string) error {
	name := "java"
	if s.goos == "windows" {
		name = "java.exe"
	}
	javaBin := filepath.Join(versionDir, storage.CanonicalDirName, "bin", name)
	info, err := os.Stat(javaBin)
	if err != nil {
		return errs.Wrap(errs.CodeDirectoryContract, err, "switcher: java binary missing in %s", filepath.Base(versionDir))
	}
	if info.IsDir() {
		return errs.New(errs.CodeDirectoryContract, "switcher: java binary path is directory: %s", javaBin)
	}
	return nil
}
