package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neculai-stanciu/jvc/pkg/errs"
)

func createZip(t *testing.T, files map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if name[len(name)-1] == '/' {
			header.SetMode(os.ModeDir | 0o755)
		} else {
			header.SetMode(0o755)
		}
		w, err := zw.CreateHeader(header)
		require.NoError(t, err)
		if content != "" {
			_, err = w.Write([]byte(content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "17")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

type tarEntry struct {
	name     string
	body     string
	linkname string
	typeflag byte
}

func createTarGz(t *testing.T, entries []tarEntry) string {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		header := &tar.Header{Name: e.name, Typeflag: e.typeflag, Linkname: e.linkname, Mode: 0o755}
		if e.typeflag == tar.TypeReg {
			header.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(header))
		if e.body != "" {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "11")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestIngestZipAndCanonicalize(t *testing.T) {
	t.Parallel()

	artifact := createZip(t, map[string]string{
		"zulu17/":              "",
		"zulu17/bin/java":      "#!/bin/sh\necho java",
		"zulu17/lib/rt.jar":    "jar",
		"zulu17/legal/LICENSE": "GPL",
	})

	dest := filepath.Join(t.TempDir(), "17-azul")
	var lastDone, lastTotal int64
	err := Ingest(artifact, "zulu17.0.9-ca-jdk17-linux_x64.zip", dest, WithProgressFunc(func(done, total int64) {
		lastDone, lastTotal = done, total
	}))
	require.NoError(t, err)

	info, err := os.Stat(artifact)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), lastTotal)
	assert.LessOrEqual(t, lastDone, lastTotal)
	assert.Positive(t, lastDone)

	installation, err := Canonicalize(dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "installation"), installation)

	data, err := os.ReadFile(filepath.Join(installation, "bin", "java"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo java")

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "installation", entries[0].Name())
}

func TestIngestTarGzWithLinks(t *testing.T) {
	t.Parallel()

	artifact := createTarGz(t, []tarEntry{
		{name: "jdk-11.0.21+9/", typeflag: tar.TypeDir},
		{name: "jdk-11.0.21+9/bin/java", body: "java", typeflag: tar.TypeReg},
		{name: "jdk-11.0.21+9/bin/java-link", linkname: "java", typeflag: tar.TypeSymlink},
		{name: "jdk-11.0.21+9/bin/java-hard", linkname: "jdk-11.0.21+9/bin/java", typeflag: tar.TypeLink},
	})

	dest := filepath.Join(t.TempDir(), "11-lts-adoptopenjdk")
	var reported bool
	require.NoError(t, Ingest(artifact, "OpenJDK11U-jdk_x64_linux_hotspot_11.0.21_9.tar.gz", dest,
		WithProgressFunc(func(done, total int64) { reported = true })))
	assert.True(t, reported)

	root, err := PackageRoot(dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "jdk-11.0.21+9"), root)

	target, err := os.Readlink(filepath.Join(root, "bin", "java-link"))
	require.NoError(t, err)
	assert.Equal(t, "java", target)

	hard, err := os.ReadFile(filepath.Join(root, "bin", "java-hard"))
	require.NoError(t, err)
	assert.Equal(t, "java", string(hard))

	installation, err := Canonicalize(dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(installation, "bin", "java"))
}

func TestIngestRejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"jdk.pkg", "jdk.msi", "jdk", "jdk.tar.xz"} {
		err := Ingest(filepath.Join(t.TempDir(), "missing"), name, t.TempDir())
		assert.True(t, errs.Is(err, errs.CodeUnsupportedArchive), "%s: got %v", name, err)
	}
}

func TestIngestRejectsCorruptArchives(t *testing.T) {
	t.Parallel()

	garbage := filepath.Join(t.TempDir(), "8")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an archive"), 0o644))

	for _, name := range []string{"jdk.zip", "jdk.tar.gz"} {
		err := Ingest(garbage, name, t.TempDir())
		assert.True(t, errs.Is(err, errs.CodeArchiveCorrupt), "%s: got %v", name, err)
	}
}

func TestIngestRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	zipArtifact := createZip(t, map[string]string{"../evil": "x"})
	err := Ingest(zipArtifact, "evil.zip", t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeArchiveCorrupt), "got %v", err)

	tarArtifact := createTarGz(t, []tarEntry{
		{name: "jdk/", typeflag: tar.TypeDir},
		{name: "jdk/escape", linkname: "../../outside", typeflag: tar.TypeSymlink},
	})
	err = Ingest(tarArtifact, "evil.tar.gz", t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeArchiveCorrupt), "got %v", err)
}

func TestPackageRootContract(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	_, err := PackageRoot(empty)
	assert.True(t, errs.Is(err, errs.CodeDirectoryContract), "empty: got %v", err)

	twoDirs := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(twoDirs, "a"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(twoDirs, "b"), 0o755))
	_, err = PackageRoot(twoDirs)
	assert.True(t, errs.Is(err, errs.CodeDirectoryContract), "two dirs: got %v", err)

	singleFile := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(singleFile, "README"), []byte("x"), 0o644))
	_, err = Canonicalize(singleFile)
	assert.True(t, errs.Is(err, errs.CodeDirectoryContract), "single file: got %v", err)
}

func TestCanonicalizeFlatZipFails(t *testing.T) {
	t.Parallel()

	artifact := createZip(t, map[string]string{"bin/java": "java", "lib/rt.jar": "jar"})
	dest := t.TempDir()
	require.NoError(t, Ingest(artifact, "flat.zip", dest))

	_, err := Canonicalize(dest)
	assert.True(t, errs.Is(err, errs.CodeDirectoryContract), "got %v", err)
	assert.DirExists(t, filepath.Join(dest, "bin"), "no rollback after a failed canonicalization")
}
