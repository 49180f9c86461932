package version

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/neculai-stanciu/jvc/internal/alias"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

type fakeClient struct {
	provider  models.Provider
	versions  []models.Version
	listErr   error
	payload   []byte
	pkgName   string
	semver    string
	downloads int
}

func (f *fakeClient) Provider() models.Provider { return f.provider }

func (f *fakeClient) BaseURL() string { return "http://fake.invalid" }

func (f *fakeClient) ListVersions(context.Context, models.VersionRequirements) ([]models.Version, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.versions, nil
}

func (f *fakeClient) Download(_ context.Context, v models.Version, _ models.VersionRequirements, dir string) (models.DownloadArtifact, error) {
	f.downloads++
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.DownloadArtifact{}, err
	}
	path := filepath.Join(dir, v.Value)
	if err := os.WriteFile(path, f.payload, 0o644); err != nil {
		return models.DownloadArtifact{}, err
	}
	v.Semver = f.semver
	return models.DownloadArtifact{Path: path, PackageName: f.pkgName, Version: v, Size: int64(len(f.payload))}, nil
}

// jdkTarGz 构造一个顶层目录为 top 的 tar.gz 安装包。
func jdkTarGz(t *testing.T, top string, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: top + "/", Typeflag: tar.TypeDir, Mode: 0o755}))
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     top + "/" + name,
			Typeflag: tar.TypeReg,
			Mode:     0o755,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newTestStore(t *testing.T) *storage.FileStorage {
	t.Helper()

	store := storage.NewFileStorage(models.Config{RootDir: t.TempDir()})
	require.NoError(t, store.EnsureLayout())
	return store
}

// installFake 直接在磁盘上放置一个带 java 可执行文件的版本目录。
func installFake(t *testing.T, store *storage.FileStorage, name string) string {
	t.Helper()

	dir := filepath.Join(store.InstallDir(), name)
	bin := filepath.Join(dir, storage.CanonicalDirName, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "java"), []byte("#!/bin/sh"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "java.exe"), []byte("MZ"), 0o755))
	return dir
}

func newTestAliases(store *storage.FileStorage) *alias.Manager {
	return alias.NewManager(store)
}
