package remote

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/neculai-stanciu/jvc/internal/platform"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// adoptClient 访问 api.adoptopenjdk.net v3。
type adoptClient struct {
	baseURL   string
	platform  platform.Info
	transport *transport
	logger    *log.Logger
}

// adoptReleases 对应 /info/available_releases 的响应。
type adoptReleases struct {
	AvailableLTSReleases []int  `json:"available_lts_releases"`
	AvailableReleases    *[]int `json:"available_releases"`
}

// adoptAsset 对应 /assets/feature_releases 返回的一条发布记录。
type adoptAsset struct {
	ReleaseName string        `json:"release_name"`
	Binaries    []adoptBinary `json:"binaries"`
	VersionData struct {
		Semver string `json:"semver"`
	} `json:"version_data"`
}

type adoptBinary struct {
	Package adoptPackage `json:"package"`
}

type adoptPackage struct {
	Name     string `json:"name"`
	Link     string `json:"link"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

func (c *adoptClient) Provider() models.Provider { return models.AdoptOpenJDK }

func (c *adoptClient) BaseURL() string { return c.baseURL }

func (c *adoptClient) ListVersions(ctx context.Context, _ models.VersionRequirements) ([]models.Version, error) {
	releasesURL := c.baseURL + "/info/available_releases"
	c.logger.Debug("request available releases", "url", releasesURL)

	var info adoptReleases
	if err := c.transport.getJSON(ctx, releasesURL, &info); err != nil {
		return nil, err
	}
	if info.AvailableReleases == nil {
		return nil, errs.New(errs.CodeSchema, "adoptopenjdk: response has no available_releases")
	}

	lts := make(map[int]bool, len(info.AvailableLTSReleases))
	for _, n := range info.AvailableLTSReleases {
		lts[n] = true
	}

	versions := make([]models.Version, 0, len(*info.AvailableReleases))
	for _, n := range *info.AvailableReleases {
		versions = append(versions, models.NewVersion(n, lts[n], models.AdoptOpenJDK))
	}
	models.SortNumeric(versions)
	return versions, nil
}

func (c *adoptClient) Download(ctx context.Context, v models.Version, req models.VersionRequirements, dir string) (models.DownloadArtifact, error) {
	assetsURL := c.assetsURL(v.Value, effectiveRequirements(models.AdoptOpenJDK, c.platform, req))
	c.logger.Debug("request assets", "url", assetsURL)

	var assets []adoptAsset
	if err := c.transport.getJSON(ctx, assetsURL, &assets); err != nil {
		return models.DownloadArtifact{}, err
	}
	if len(assets) == 0 || len(assets[0].Binaries) == 0 {
		return models.DownloadArtifact{}, errs.New(errs.CodeResolution, "adoptopenjdk: no binary matches version %s", v.Value)
	}
	pkg := assets[0].Binaries[0].Package
	if pkg.Link == "" {
		return models.DownloadArtifact{}, errs.New(errs.CodeResolution, "adoptopenjdk: binary for version %s has no package link", v.Value)
	}

	full, err := resolvedSemver(assets[0].VersionData.Semver, v, c.logger)
	if err != nil {
		return models.DownloadArtifact{}, err
	}

	location, err := c.transport.redirectLocation(ctx, pkg.Link)
	if err != nil {
		return models.DownloadArtifact{}, err
	}
	c.logger.Debug("download package", "release", assets[0].ReleaseName, "name", pkg.Name, "url", location)

	dest := filepath.Join(dir, v.Value)
	written, err := c.transport.download(ctx, location, dest, pkg.Size, pkg.Checksum)
	if err != nil {
		return models.DownloadArtifact{}, err
	}

	resolved := v
	resolved.Semver = full
	return models.DownloadArtifact{
		Path:        dest,
		PackageName: pkg.Name,
		Version:     resolved,
		Size:        written,
	}, nil
}

func (c *adoptClient) assetsURL(value string, req models.VersionRequirements) string {
	q := url.Values{}
	q.Set("architecture", req.Arch)
	q.Set("heap_size", req.HeapSize)
	q.Set("image_type", req.ImageType)
	q.Set("jvm_impl", req.JVMImpl)
	q.Set("os", req.OS)
	q.Set("project", req.Project)
	q.Set("vendor", req.Vendor)
	q.Set("page", "0")
	q.Set("page_size", "1")
	q.Set("sort_method", "DEFAULT")
	q.Set("sort_order", "DESC")
	return fmt.Sprintf("%s/assets/feature_releases/%s/%s?%s",
		c.baseURL, url.PathEscape(value), url.PathEscape(req.ReleaseType), q.Encode())
}

// resolvedSemver 解析响应中的完整版本；主版本号与请求不一致时拒绝下载，无法解析时原样保留。
func resolvedSemver(raw string, v models.Version, logger *log.Logger) (string, error) {
	if raw == "" {
		return "", nil
	}
	parsed, err := semver.NewVersion(raw)
	if err != nil {
		logger.Debug("keep unparsable version", "version", raw, "err", err)
		return raw, nil
	}
	want, err := v.Number()
	if err != nil {
		return "", err
	}
	if parsed.Major() != uint64(want) {
		return "", errs.New(errs.CodeResolution, "%s: asked for version %s but the provider offered %s", v.Provider, v.Value, raw)
	}
	return parsed.String(), nil
}
