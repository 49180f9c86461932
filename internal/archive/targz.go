package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/neculai-stanciu/jvc/pkg/errs"
)

func extractTarGz(archivePath, dest string, progress ProgressFunc) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errs.Wrap(errs.CodeIO, err, "archive: open %s", archivePath)
	}
	defer file.Close()

	var src io.Reader = file
	if progress != nil {
		info, err := file.Stat()
		if err != nil {
			return errs.Wrap(errs.CodeIO, err, "archive: stat %s", archivePath)
		}
		src = &progressReader{r: file, total: info.Size(), report: progress}
	}

	gz, err := gzip.NewReader(src)
	if err != nil {
		return errs.Wrap(errs.CodeArchiveCorrupt, err, "archive: gzip reader")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errs.Wrap(errs.CodeArchiveCorrupt, err, "archive: read tar")
		}

		target, skip, err := entryTarget(dest, header.Name)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errs.Wrap(errs.CodeIO, err, "archive: mkdir %s", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, os.FileMode(header.Mode), tr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, header.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			source, _, err := entryTarget(dest, header.Linkname)
			if err != nil {
				return err
			}
			if err := os.Link(source, target); err != nil {
				return errs.Wrap(errs.CodeIO, err, "archive: hard link %s", target)
			}
		default:
			// pax 头、设备文件等与安装无关的条目直接跳过
		}
	}
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}
