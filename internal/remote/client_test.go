package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neculai-stanciu/jvc/internal/platform"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

var linuxAMD64 = platform.Info{OS: "linux", Arch: "amd64"}

func newTestClient(t *testing.T, p models.Provider, server *httptest.Server, opts ...Option) PackageClient {
	t.Helper()

	opts = append([]Option{
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithPlatform(linuxAMD64),
	}, opts...)
	client, err := NewClient(p, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode test data failed: %v", err)
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestNewClientRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := NewClient(models.Provider(99))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CodeUnknownProvider))
}

func TestNewClientDefaultsToProviderBaseURL(t *testing.T) {
	t.Parallel()

	for _, p := range models.Providers() {
		client, err := NewClient(p)
		require.NoError(t, err)
		assert.Equal(t, p, client.Provider())
		assert.Equal(t, p.BaseURL(), client.BaseURL())
	}
}

func TestAdoptListVersionsMarksLTSAndSorts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/info/available_releases", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"available_lts_releases": []int{8, 11, 17},
			"available_releases":     []int{17, 8, 16, 11},
			"most_recent_lts":        17,
		})
	}))
	defer server.Close()

	versions, err := newTestClient(t, models.AdoptOpenJDK, server).ListVersions(context.Background(), models.VersionRequirements{})
	require.NoError(t, err)

	want := []models.Version{
		models.NewVersion(8, true, models.AdoptOpenJDK),
		models.NewVersion(11, true, models.AdoptOpenJDK),
		models.NewVersion(16, false, models.AdoptOpenJDK),
		models.NewVersion(17, true, models.AdoptOpenJDK),
	}
	assert.Equal(t, want, versions)
}

func TestAdoptListVersionsRequiresAvailableReleases(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"available_lts_releases": []int{8}})
	}))
	defer server.Close()

	_, err := newTestClient(t, models.AdoptOpenJDK, server).ListVersions(context.Background(), models.VersionRequirements{})
	assert.True(t, errs.Is(err, errs.CodeSchema), "got %v", err)
}

func TestListVersionsMapsHTTPFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   errs.Code
	}{
		{http.StatusNotFound, errs.CodeResolution},
		{http.StatusInternalServerError, errs.CodeNetwork},
		{http.StatusForbidden, errs.CodeNetwork},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := newTestClient(t, models.AdoptOpenJDK, server).ListVersions(context.Background(), models.VersionRequirements{})
		server.Close()
		assert.True(t, errs.Is(err, tc.want), "status %d: got %v", tc.status, err)
	}
}

func TestListVersionsRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(t, models.Azul, server).ListVersions(context.Background(), models.VersionRequirements{})
	assert.True(t, errs.Is(err, errs.CodeSchema), "got %v", err)
}

// adoptServer 模拟 assets 查询、302 跳转以及最终的安装包下载。
func adoptServer(t *testing.T, payload []byte, checksum string, redirect http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/assets/feature_releases/17/ga", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "x64", q.Get("architecture"))
		assert.Equal(t, "normal", q.Get("heap_size"))
		assert.Equal(t, "jre", q.Get("image_type"))
		assert.Equal(t, "hotspot", q.Get("jvm_impl"))
		assert.Equal(t, "linux", q.Get("os"))
		assert.Equal(t, "jdk", q.Get("project"))
		assert.Equal(t, "adoptopenjdk", q.Get("vendor"))
		assert.Equal(t, "0", q.Get("page"))
		assert.Equal(t, "1", q.Get("page_size"))
		assert.Equal(t, "DEFAULT", q.Get("sort_method"))
		assert.Equal(t, "DESC", q.Get("sort_order"))

		writeJSON(t, w, []map[string]any{{
			"release_name": "jdk-17.0.9+9",
			"version_data": map[string]any{"semver": "17.0.9+9"},
			"binaries": []map[string]any{
				{"package": map[string]any{
					"name":     "OpenJDK17U-jre_x64_linux_hotspot_17.0.9_9.tar.gz",
					"link":     server.URL + "/package",
					"checksum": checksum,
					"size":     len(payload),
				}},
				{"package": map[string]any{"name": "second.tar.gz", "link": server.URL + "/unused"}},
			},
		}})
	})
	mux.HandleFunc("/package", redirect)
	mux.HandleFunc("/files/jdk.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	server = httptest.NewServer(mux)
	return server
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", path)
		w.WriteHeader(http.StatusFound)
	}
}

func TestAdoptDownloadFollowsSingleRedirect(t *testing.T) {
	t.Parallel()

	payload := []byte("fake jdk archive contents")
	server := adoptServer(t, payload, sha256Hex(payload), redirectTo("/files/jdk.tar.gz"))
	defer server.Close()

	var reports [][2]int64
	client := newTestClient(t, models.AdoptOpenJDK, server, WithProgressFunc(func(downloaded, total int64) {
		reports = append(reports, [2]int64{downloaded, total})
	}))

	dir := t.TempDir()
	v := models.NewVersion(17, true, models.AdoptOpenJDK)
	artifact, err := client.Download(context.Background(), v, models.VersionRequirements{ImageType: "jre"}, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "17"), artifact.Path)
	assert.Equal(t, "OpenJDK17U-jre_x64_linux_hotspot_17.0.9_9.tar.gz", artifact.PackageName)
	assert.Equal(t, int64(len(payload)), artifact.Size)
	assert.Equal(t, "17.0.9+9", artifact.Version.Semver)
	assert.Equal(t, "17-lts-adoptopenjdk", artifact.Version.DiskName())

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NotEmpty(t, reports)
	last := reports[len(reports)-1]
	assert.Equal(t, int64(len(payload)), last[0])
	assert.Equal(t, int64(len(payload)), last[1])
}

func TestAdoptDownloadRequiresLocationHeader(t *testing.T) {
	t.Parallel()

	payload := []byte("data")
	server := adoptServer(t, payload, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	defer server.Close()

	client := newTestClient(t, models.AdoptOpenJDK, server)
	_, err := client.Download(context.Background(), models.NewVersion(17, true, models.AdoptOpenJDK),
		models.VersionRequirements{ImageType: "jre"}, t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeResolution), "got %v", err)
}

func TestAdoptDownloadRejectsNonRedirect(t *testing.T) {
	t.Parallel()

	payload := []byte("data")
	server := adoptServer(t, payload, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	defer server.Close()

	client := newTestClient(t, models.AdoptOpenJDK, server)
	_, err := client.Download(context.Background(), models.NewVersion(17, true, models.AdoptOpenJDK),
		models.VersionRequirements{ImageType: "jre"}, t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeResolution), "got %v", err)
}

func TestAdoptDownloadVerifiesChecksum(t *testing.T) {
	t.Parallel()

	payload := []byte("tampered")
	server := adoptServer(t, payload, sha256Hex([]byte("original")), redirectTo("/files/jdk.tar.gz"))
	defer server.Close()

	client := newTestClient(t, models.AdoptOpenJDK, server)
	_, err := client.Download(context.Background(), models.NewVersion(17, true, models.AdoptOpenJDK),
		models.VersionRequirements{ImageType: "jre"}, t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeChecksum), "got %v", err)
}

func TestAdoptDownloadRejectsOtherMajorVersion(t *testing.T) {
	t.Parallel()

	fetched := false
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/feature_releases/17/ga", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{{
			"release_name": "jdk-11.0.21+9",
			"version_data": map[string]any{"semver": "11.0.21+9"},
			"binaries": []map[string]any{
				{"package": map[string]any{"name": "jdk11.tar.gz", "link": "/package"}},
			},
		}})
	})
	mux.HandleFunc("/package", func(w http.ResponseWriter, r *http.Request) {
		fetched = true
		redirectTo("/files/jdk.tar.gz")(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	_, err := newTestClient(t, models.AdoptOpenJDK, server).Download(context.Background(),
		models.NewVersion(17, true, models.AdoptOpenJDK), models.VersionRequirements{ImageType: "jdk"}, dir)
	assert.True(t, errs.Is(err, errs.CodeResolution), "got %v", err)
	assert.False(t, fetched)
	assert.NoFileExists(t, filepath.Join(dir, "17"))
}

func TestAzulDownloadRejectsOtherMajorVersion(t *testing.T) {
	t.Parallel()

	fetched := false
	mux := http.NewServeMux()
	mux.HandleFunc("/bundles/latest/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"name": "zulu8.zip", "url": "http://" + r.Host + "/file", "jdk_version": []int{8, 0, 392}})
	})
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		fetched = true
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(t, models.Azul, server).Download(context.Background(),
		models.NewVersion(11, true, models.Azul), models.VersionRequirements{}, t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeResolution), "got %v", err)
	assert.False(t, fetched)
}

func TestAdoptDownloadWithoutBinaries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{})
	}))
	defer server.Close()

	client := newTestClient(t, models.AdoptOpenJDK, server)
	_, err := client.Download(context.Background(), models.NewVersion(99, false, models.AdoptOpenJDK),
		models.VersionRequirements{}, t.TempDir())
	assert.True(t, errs.Is(err, errs.CodeResolution), "got %v", err)
}

func TestDownloadReportsUnwritableDestination(t *testing.T) {
	t.Parallel()

	payload := []byte("jdk")
	server := adoptServer(t, payload, "", redirectTo("/files/jdk.tar.gz"))
	defer server.Close()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	client := newTestClient(t, models.AdoptOpenJDK, server)
	_, err := client.Download(context.Background(), models.NewVersion(17, true, models.AdoptOpenJDK),
		models.VersionRequirements{ImageType: "jre"}, filepath.Join(blocker, "downloads"))
	assert.True(t, errs.Is(err, errs.CodeIO), "got %v", err)
}

func azulBundles(versions ...[]int) []map[string]any {
	bundles := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		bundles = append(bundles, map[string]any{"name": "zulu.zip", "jdk_version": v})
	}
	return bundles
}

func TestAzulListVersions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/bundles/", r.URL.Path)
		assert.Equal(t, "linux", q.Get("os"))
		assert.Equal(t, "x86", q.Get("arch"))
		assert.Equal(t, "zip", q.Get("ext"))
		assert.Equal(t, "jdk", q.Get("bundle_type"))
		assert.Equal(t, "ga", q.Get("release_status"))
		assert.Equal(t, "64", q.Get("hw_bitness"))

		if q.Get("support_term") == "lts" {
			writeJSON(t, w, azulBundles([]int{11, 0, 21}, []int{8, 0, 392}))
			return
		}
		writeJSON(t, w, azulBundles([]int{17, 0, 9}, []int{11, 0, 21}, []int{11, 0, 20}, []int{8, 0, 392}))
	}))
	defer server.Close()

	versions, err := newTestClient(t, models.Azul, server).ListVersions(context.Background(), models.VersionRequirements{})
	require.NoError(t, err)

	want := []models.Version{
		models.NewVersion(8, true, models.Azul),
		models.NewVersion(11, true, models.Azul),
		models.NewVersion(17, false, models.Azul),
	}
	assert.Equal(t, want, versions)
}

func TestAzulListVersionsDegradesWhenLTSQueryFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("support_term") == "lts" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, azulBundles([]int{17, 0, 9}, []int{11, 0, 21}))
	}))
	defer server.Close()

	var logs bytes.Buffer
	client := newTestClient(t, models.Azul, server, WithLogger(log.New(&logs)))
	versions, err := client.ListVersions(context.Background(), models.VersionRequirements{})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	for _, v := range versions {
		assert.False(t, v.LTS, "version %s", v.Value)
	}
	assert.Contains(t, logs.String(), "WARN")
	assert.Contains(t, logs.String(), "cannot query LTS releases")
}

func TestAzulExplicitArchSkipsHostBitness(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "arm", q.Get("arch"))
		assert.False(t, q.Has("hw_bitness"))
		writeJSON(t, w, azulBundles([]int{17, 0, 9}))
	}))
	defer server.Close()

	_, err := newTestClient(t, models.Azul, server).ListVersions(context.Background(), models.VersionRequirements{Arch: "arm"})
	require.NoError(t, err)
}

func TestAzulListVersionsRejectsEmptyJDKVersion(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, azulBundles([]int{17, 0, 9}, []int{}))
	}))
	defer server.Close()

	_, err := newTestClient(t, models.Azul, server).ListVersions(context.Background(), models.VersionRequirements{})
	assert.True(t, errs.Is(err, errs.CodeSchema), "got %v", err)
}

func TestAzulDownload(t *testing.T) {
	t.Parallel()

	payload := []byte("zulu archive")
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/bundles/latest/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "11", q.Get("jdk_version"))
		assert.Equal(t, "macos", q.Get("os"))
		assert.Equal(t, "arm", q.Get("arch"))
		assert.Equal(t, "64", q.Get("hw_bitness"))
		assert.Equal(t, "zip", q.Get("ext"))
		writeJSON(t, w, map[string]any{
			"name":        "zulu11.68.17-ca-jdk11.0.21-macosx_aarch64.zip",
			"url":         server.URL + "/cdn/zulu11.zip",
			"jdk_version": []int{11, 0, 21, 9},
			"size":        len(payload),
			"sha256_hash": sha256Hex(payload),
		})
	})
	mux.HandleFunc("/cdn/zulu11.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(models.Azul,
		WithBaseURL(server.URL+"/"),
		WithHTTPClient(server.Client()),
		WithPlatform(platform.Info{OS: "darwin", Arch: "arm64"}),
	)
	require.NoError(t, err)

	dir := t.TempDir()
	artifact, err := client.Download(context.Background(), models.NewVersion(11, true, models.Azul), models.VersionRequirements{}, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "11"), artifact.Path)
	assert.Equal(t, "zulu11.68.17-ca-jdk11.0.21-macosx_aarch64.zip", artifact.PackageName)
	assert.Equal(t, "11.0.21", artifact.Version.Semver)
	assert.Equal(t, int64(len(payload)), artifact.Size)

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadTruncatesExistingFile(t *testing.T) {
	t.Parallel()

	payload := []byte("new")
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/bundles/latest/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"name": "zulu.zip", "url": server.URL + "/file", "jdk_version": []int{8}})
	})
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "8"), []byte("stale and much longer content"), 0o644))

	artifact, err := newTestClient(t, models.Azul, server).Download(context.Background(), models.NewVersion(8, true, models.Azul), models.VersionRequirements{}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestEffectiveRequirementsPrecedence(t *testing.T) {
	t.Parallel()

	req := effectiveRequirements(models.AdoptOpenJDK, platform.Info{OS: "darwin", Arch: "arm64"}, models.VersionRequirements{Arch: "x64"})
	assert.Equal(t, "x64", req.Arch)
	assert.Equal(t, "mac", req.OS)
	assert.Equal(t, "hotspot", req.JVMImpl)
}
