// Package archive 把下载的安装包解到版本目录，并把唯一的顶层目录规范化为 installation。
package archive

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
)

// ProgressFunc 在解包过程中回调已处理的压缩字节数以及压缩包总大小。
type ProgressFunc func(done, total int64)

// Option 配置 Ingest。
type Option func(*options)

type options struct {
	progress ProgressFunc
}

// WithProgressFunc 指定进度回调。
func WithProgressFunc(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Ingest 按 originalName 的扩展名选择解包方式，把 artifactPath 解到 dest。
// 失败时不做回滚，已写出的部分保留在 dest 中。
func Ingest(artifactPath, originalName, dest string, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	kind := strings.TrimPrefix(filepath.Ext(originalName), ".")
	var extract func(string, string, ProgressFunc) error
	switch strings.ToLower(kind) {
	case "zip":
		extract = extractZip
	case "gz":
		extract = extractTarGz
	default:
		return errs.New(errs.CodeUnsupportedArchive, "archive: unsupported archive kind %q for %s", kind, originalName)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: create %s", dest)
	}
	return extract(artifactPath, dest, o.progress)
}

// PackageRoot 返回 dest 下唯一的顶层目录，条目数不为一或不是目录时违反目录约定。
func PackageRoot(dest string) (string, error) {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "archive: read %s", dest)
	}
	if len(entries) != 1 {
		return "", errs.New(errs.CodeDirectoryContract, "archive: expected a single top-level directory in %s, found %d entries", dest, len(entries))
	}
	root := filepath.Join(dest, entries[0].Name())
	info, err := os.Stat(root)
	if err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "archive: stat %s", root)
	}
	if !info.IsDir() {
		return "", errs.New(errs.CodeDirectoryContract, "archive: top-level entry %s is not a directory", entries[0].Name())
	}
	return root, nil
}

// Canonicalize 把唯一的顶层目录改名为 installation，返回新路径。
func Canonicalize(dest string) (string, error) {
	root, err := PackageRoot(dest)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dest, storage.CanonicalDirName)
	if root == target {
		return target, nil
	}
	if err := os.Rename(root, target); err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "archive: rename %s", root)
	}
	return target, nil
}

// entryTarget 把归档条目名转换成 dest 下的路径；skip 为 true 表示条目指向根目录本身。
func entryTarget(dest, name string) (target string, skip bool, err error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "./"))
	if clean == "." || clean == "" || clean == "/" {
		return "", true, nil
	}
	target = filepath.Join(dest, filepath.FromSlash(clean))
	if err := ensureWithinRoot(dest, target); err != nil {
		return "", false, err
	}
	return target, false, nil
}

// ensureWithinRoot 拒绝解到 root 之外的条目。
func ensureWithinRoot(root, target string) error {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if target == root {
		return nil
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return errs.New(errs.CodeArchiveCorrupt, "archive: entry escapes destination: %s", target)
	}
	return nil
}

// checkLinkTarget 拒绝绝对路径或跳出 root 的符号链接。
func checkLinkTarget(root, link, linkname string) error {
	if filepath.IsAbs(linkname) {
		return errs.New(errs.CodeArchiveCorrupt, "archive: absolute symlink %s -> %s", link, linkname)
	}
	return ensureWithinRoot(root, filepath.Join(filepath.Dir(link), linkname))
}

func writeFile(target string, mode os.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: mkdir for %s", target)
	}
	if mode.Perm() == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o200)
	if err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: create %s", target)
	}
	defer f.Close()

	sink := &trackingWriter{w: f}
	if _, err := io.Copy(sink, r); err != nil {
		if sink.err != nil {
			return errs.Wrap(errs.CodeIO, sink.err, "archive: write %s", target)
		}
		return errs.Wrap(errs.CodeArchiveCorrupt, err, "archive: read entry %s", target)
	}
	return nil
}

func writeSymlink(root, target, linkname string) error {
	if err := checkLinkTarget(root, target, linkname); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: mkdir for %s", target)
	}
	if err := os.Symlink(linkname, target); err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: symlink %s", target)
	}
	return nil
}

// trackingWriter 记录写入错误，用于区分归档损坏与本地 IO 错误。
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
