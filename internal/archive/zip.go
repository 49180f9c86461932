package archive

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/klauspost/compress/zip"

	"github.com/neculai-stanciu/jvc/pkg/errs"
)

func extractZip(archivePath, dest string, progress ProgressFunc) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: open %s", archivePath)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: stat %s", archivePath)
	}

	var src io.ReaderAt = file
	if progress != nil {
		src = &progressReaderAt{r: file, total: info.Size(), report: progress}
	}

	zr, err := zip.NewReader(src, info.Size())
	if err != nil {
		return errs.Wrap(errs.CodeArchiveCorrupt, err, "archive: zip reader")
	}

	for _, f := range zr.File {
		target, skip, err := entryTarget(dest, f.Name)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		if err := extractZipEntry(dest, target, f); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(dest, target string, f *zip.File) error {
	mode := f.Mode()
	if mode.IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return errs.Wrap(errs.CodeIO, err, "archive: mkdir %s", target)
		}
		return nil
	}

	rc, err := f.Open()
	if err != nil {
		return errs.Wrap(errs.CodeArchiveCorrupt, err, "archive: open entry %s", f.Name)
	}
	defer rc.Close()

	if mode&os.ModeSymlink != 0 {
		linkname, err := io.ReadAll(rc)
		if err != nil {
			return errs.Wrap(errs.CodeArchiveCorrupt, err, "archive: read symlink %s", f.Name)
		}
		return writeSymlink(dest, target, string(linkname))
	}
	return writeFile(target, mode, rc)
}

// progressReaderAt 统计从压缩包读取的字节数，上限为文件大小。
type progressReaderAt struct {
	r      io.ReaderAt
	total  int64
	read   atomic.Int64
	report ProgressFunc
}

func (p *progressReaderAt) ReadAt(b []byte, off int64) (int, error) {
	n, err := p.r.ReadAt(b, off)
	if n > 0 {
		done := min(p.read.Add(int64(n)), p.total)
		p.report(done, p.total)
	}
	return n, err
}
