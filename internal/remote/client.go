package remote

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/neculai-stanciu/jvc/internal/platform"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// PackageClient 定义一个 JDK 构建来源应具备的能力。
type PackageClient interface {
	Provider() models.Provider
	BaseURL() string
	// ListVersions 返回该来源可用的主版本，按主版本号升序排列。
	ListVersions(ctx context.Context, req models.VersionRequirements) ([]models.Version, error)
	// Download 把 v 对应的安装包写入 dir/<v.Value>。
	Download(ctx context.Context, v models.Version, req models.VersionRequirements, dir string) (models.DownloadArtifact, error)
}

// ProgressFunc 在下载过程中回调当前已完成的字节数以及总字节数。
type ProgressFunc func(downloaded, total int64)

// Option 用于配置客户端。
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	progress   ProgressFunc
	logger     *log.Logger
	platform   platform.Info
}

// WithBaseURL 设置自定义 API 根地址。
func WithBaseURL(base string) Option {
	return func(o *options) {
		if base != "" {
			o.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient 设置 HTTP 客户端。
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) {
		if h != nil {
			o.httpClient = h
		}
	}
}

// WithProgressFunc 设置下载进度回调。
func WithProgressFunc(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithLogger 设置日志输出。
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPlatform 覆盖自动探测的平台信息。
func WithPlatform(info platform.Info) Option {
	return func(o *options) {
		o.platform = info
	}
}

// NewClient 按 Provider 创建对应的客户端，未知 Provider 返回 UNKNOWN_PROVIDER_CODE。
func NewClient(p models.Provider, opts ...Option) (PackageClient, error) {
	o := options{
		baseURL:    p.BaseURL(),
		httpClient: http.DefaultClient,
		logger:     log.New(io.Discard),
		platform:   platform.Detect(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	t := newTransport(o.httpClient, o.progress)
	switch p {
	case models.AdoptOpenJDK:
		return &adoptClient{baseURL: o.baseURL, platform: o.platform, transport: t, logger: o.logger}, nil
	case models.Azul:
		return &azulClient{baseURL: o.baseURL, platform: o.platform, transport: t, logger: o.logger}, nil
	default:
		return nil, errs.New(errs.CodeUnknownProvider, "remote: no client for provider %d", int(p))
	}
}

// effectiveRequirements 按 用户条件 > 平台推断 > Provider 默认值 合并查询条件。
func effectiveRequirements(p models.Provider, info platform.Info, req models.VersionRequirements) models.VersionRequirements {
	return req.Or(info.Requirements(p)).Or(p.Defaults())
}
