package remote

import (
	"context"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/neculai-stanciu/jvc/internal/platform"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// azulClient 访问 Azul Zulu community 接口。
type azulClient struct {
	baseURL   string
	platform  platform.Info
	transport *transport
	logger    *log.Logger
}

type azulBundle struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	JDKVersion []int  `json:"jdk_version"`
}

type azulBundleDetails struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	JDKVersion []int  `json:"jdk_version"`
	Size       int64  `json:"size"`
	SHA256Hash string `json:"sha256_hash"`
}

func (c *azulClient) Provider() models.Provider { return models.Azul }

func (c *azulClient) BaseURL() string { return c.baseURL }

func (c *azulClient) ListVersions(ctx context.Context, req models.VersionRequirements) ([]models.Version, error) {
	q := c.bundleQuery(req)
	bundlesURL := c.baseURL + "/bundles/?" + q.Encode()
	c.logger.Debug("request bundles", "url", bundlesURL)

	majors, err := c.majorVersions(ctx, bundlesURL)
	if err != nil {
		return nil, err
	}

	q.Set("support_term", "lts")
	ltsURL := c.baseURL + "/bundles/?" + q.Encode()
	lts, err := c.majorVersions(ctx, ltsURL)
	if err != nil {
		c.logger.Warn("cannot query LTS releases, marking every version as non-LTS", "err", errs.UserMessage(err))
		lts = map[int]struct{}{}
	}

	versions := make([]models.Version, 0, len(majors))
	for n := range majors {
		_, isLTS := lts[n]
		versions = append(versions, models.NewVersion(n, isLTS, models.Azul))
	}
	models.SortNumeric(versions)
	return versions, nil
}

// majorVersions 返回 bundles 响应中出现过的主版本号集合。
func (c *azulClient) majorVersions(ctx context.Context, rawURL string) (map[int]struct{}, error) {
	var bundles []azulBundle
	if err := c.transport.getJSON(ctx, rawURL, &bundles); err != nil {
		return nil, err
	}

	majors := make(map[int]struct{}, len(bundles))
	for _, b := range bundles {
		if len(b.JDKVersion) == 0 {
			return nil, errs.New(errs.CodeSchema, "azul: bundle %q has empty jdk_version", b.Name)
		}
		majors[b.JDKVersion[0]] = struct{}{}
	}
	return majors, nil
}

func (c *azulClient) Download(ctx context.Context, v models.Version, req models.VersionRequirements, dir string) (models.DownloadArtifact, error) {
	q := c.bundleQuery(req)
	q.Set("jdk_version", v.Value)
	detailsURL := c.baseURL + "/bundles/latest/?" + q.Encode()
	c.logger.Debug("request bundle details", "url", detailsURL)

	var details azulBundleDetails
	if err := c.transport.getJSON(ctx, detailsURL, &details); err != nil {
		return models.DownloadArtifact{}, err
	}
	if details.URL == "" {
		return models.DownloadArtifact{}, errs.New(errs.CodeResolution, "azul: no bundle url for version %s", v.Value)
	}
	full, err := resolvedSemver(joinVersion(details.JDKVersion), v, c.logger)
	if err != nil {
		return models.DownloadArtifact{}, err
	}
	c.logger.Debug("download package", "name", details.Name, "url", details.URL)

	dest := filepath.Join(dir, v.Value)
	written, err := c.transport.download(ctx, details.URL, dest, details.Size, details.SHA256Hash)
	if err != nil {
		return models.DownloadArtifact{}, err
	}

	resolved := v
	resolved.Semver = full
	return models.DownloadArtifact{
		Path:        dest,
		PackageName: details.Name,
		Version:     resolved,
		Size:        written,
	}, nil
}

// bundleQuery 构造 Azul bundles 接口的公共查询参数。
// arch 只区分 x86/arm，未显式指定架构时按本机字长补上 hw_bitness。
func (c *azulClient) bundleQuery(req models.VersionRequirements) url.Values {
	bitness := ""
	if req.Arch == "" {
		bitness = c.platform.Bitness()
	}
	req = effectiveRequirements(models.Azul, c.platform, req)

	q := url.Values{}
	if bitness != "" {
		q.Set("hw_bitness", bitness)
	}
	q.Set("os", req.OS)
	q.Set("arch", req.Arch)
	q.Set("ext", "zip")
	q.Set("bundle_type", req.ImageType)
	q.Set("release_status", req.ReleaseType)
	return q
}

// joinVersion 把 jdk_version 的前三段拼成 major.minor.patch。
func joinVersion(parts []int) string {
	if len(parts) > 3 {
		parts = parts[:3]
	}
	text := make([]string, len(parts))
	for i, p := range parts {
		text[i] = strconv.Itoa(p)
	}
	return strings.Join(text, ".")
}
