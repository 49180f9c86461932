package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/neculai-stanciu/jvc/pkg/errs"
)

type transport struct {
	client     *http.Client
	noRedirect *http.Client
	progress   ProgressFunc
}

func newTransport(client *http.Client, progress ProgressFunc) *transport {
	noRedirect := *client
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &transport{client: client, noRedirect: &noRedirect, progress: progress}
}

func (t *transport) get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.CodeNetwork, err, "remote: build request %s", rawURL)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.CodeNetwork, err, "remote: request %s", rawURL)
	}
	return resp, nil
}

// getJSON 请求 rawURL 并把响应解码到 out。
func (t *transport) getJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := t.get(ctx, t.client, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, rawURL); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.CodeSchema, err, "remote: decode response from %s", rawURL)
	}
	return nil
}

// redirectLocation 请求 rawURL 且不跟随跳转，要求恰好返回 302 并带 Location。
func (t *transport) redirectLocation(ctx context.Context, rawURL string) (string, error) {
	resp, err := t.get(ctx, t.noRedirect, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusFound {
		return "", errs.New(errs.CodeResolution, "remote: expected redirect from %s, got status %d", rawURL, resp.StatusCode)
	}
	location, err := resp.Location()
	if err != nil {
		return "", errs.Wrap(errs.CodeResolution, err, "remote: redirect from %s has no usable location", rawURL)
	}
	return location.String(), nil
}

// download 把 rawURL 的内容写入 dest（覆盖已有文件），返回写入的字节数。
// declared 为来源声明的大小，未声明时使用 Content-Length；checksum 非空时校验 SHA256。
func (t *transport) download(ctx context.Context, rawURL, dest string, declared int64, checksum string) (int64, error) {
	resp, err := t.get(ctx, t.client, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, rawURL); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, errs.Wrap(errs.CodeIO, err, "remote: create dir for %s", dest)
	}
	file, err := os.Create(dest)
	if err != nil {
		return 0, errs.Wrap(errs.CodeIO, err, "remote: create %s", dest)
	}
	defer file.Close()

	total := declared
	if total <= 0 {
		total = resp.ContentLength
	}

	hasher := sha256.New()
	sink := &trackingWriter{w: file}
	var body io.Reader = resp.Body
	if t.progress != nil {
		body = &progressReader{r: resp.Body, total: total, report: t.progress}
	}

	written, err := io.Copy(io.MultiWriter(sink, hasher), body)
	if err != nil {
		if sink.err != nil {
			return written, errs.Wrap(errs.CodeIO, sink.err, "remote: write %s", dest)
		}
		return written, errs.Wrap(errs.CodeNetwork, err, "remote: stream %s", rawURL)
	}
	if err := file.Sync(); err != nil {
		return written, errs.Wrap(errs.CodeIO, err, "remote: sync %s", dest)
	}

	if checksum != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, checksum) {
			return written, errs.New(errs.CodeChecksum, "remote: checksum mismatch for %s, got %s want %s", filepath.Base(dest), actual, checksum)
		}
	}
	return written, nil
}

func checkStatus(resp *http.Response, rawURL string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errs.New(errs.CodeResolution, "remote: nothing found at %s", rawURL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errs.New(errs.CodeNetwork, "remote: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return nil
}

// trackingWriter 记录目标文件的写入错误，用于区分网络错误与本地 IO 错误。
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
