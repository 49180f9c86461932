package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// ListInstalled 返回安装根目录下的条目名（按名称排序），跳过下载目录。
func (s *FileStorage) ListInstalled() ([]string, error) {
	entries, err := os.ReadDir(s.installDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.Wrap(errs.CodeIO, err, "storage: read %s", s.installDir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name() == DownloadsDirName {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// InstalledVersions 返回可解码的已安装版本，按主版本号升序排列。
func (s *FileStorage) InstalledVersions() ([]models.InstalledVersion, error) {
	names, err := s.ListInstalled()
	if err != nil {
		return nil, err
	}

	installed := make([]models.InstalledVersion, 0, len(names))
	for _, name := range names {
		v, err := models.ParseDiskName(name)
		if err != nil {
			continue
		}
		installed = append(installed, models.InstalledVersion{
			Name:    name,
			Path:    filepath.Join(s.installDir, name),
			Version: v,
		})
	}

	sort.SliceStable(installed, func(i, j int) bool {
		return models.CompareNumeric(installed[i].Version, installed[j].Version) < 0
	})
	return installed, nil
}

// FindByNumericVersion 返回第一个主版本号等于 n 的已安装版本；未找到时 ok 为 false 且不返回错误。
func (s *FileStorage) FindByNumericVersion(n int) (models.InstalledVersion, bool, error) {
	names, err := s.ListInstalled()
	if err != nil {
		return models.InstalledVersion{}, false, err
	}

	for _, name := range names {
		v, err := models.ParseDiskName(name)
		if err != nil {
			continue
		}
		if number, err := v.Number(); err == nil && number == n {
			return models.InstalledVersion{
				Name:    name,
				Path:    filepath.Join(s.installDir, name),
				Version: v,
			}, true, nil
		}
	}
	return models.InstalledVersion{}, false, nil
}

// IsComplete 判断版本目录内是否已有规范化的 installation 子目录。
func IsComplete(iv models.InstalledVersion) bool {
	info, err := os.Stat(filepath.Join(iv.Path, CanonicalDirName))
	return err == nil && info.IsDir()
}
