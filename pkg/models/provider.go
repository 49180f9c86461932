package models

import (
	"strings"

	"github.com/neculai-stanciu/jvc/pkg/errs"
)

// Provider 是 JDK 构建来源的封闭枚举。新增后端时需同时新增枚举值与 remote 包中的实现。
type Provider int

const (
	// AdoptOpenJDK 表示 api.adoptopenjdk.net v3 接口。
	AdoptOpenJDK Provider = iota + 1
	// Azul 表示 Azul Zulu community 接口。
	Azul
)

type providerSpec struct {
	code     string
	baseURL  string
	defaults VersionRequirements
}

var providerSpecs = map[Provider]providerSpec{
	AdoptOpenJDK: {
		code:    "adoptopenjdk",
		baseURL: "https://api.adoptopenjdk.net/v3",
		defaults: VersionRequirements{
			Arch:        "x64",
			ImageType:   "jdk",
			JVMImpl:     "hotspot",
			HeapSize:    "normal",
			ReleaseType: "ga",
			Vendor:      "adoptopenjdk",
			Project:     "jdk",
			OS:          "linux",
		},
	},
	Azul: {
		code:    "azul",
		baseURL: "https://api.azul.com/zulu/download/community/v1.0",
		defaults: VersionRequirements{
			Arch:        "x86",
			ImageType:   "jdk",
			ReleaseType: "ga",
			OS:          "linux",
		},
	},
}

// Providers 按固定顺序返回所有已知 Provider。
func Providers() []Provider {
	return []Provider{AdoptOpenJDK, Azul}
}

// ParseProvider 将文本代码解析为 Provider，未知代码返回 UNKNOWN_PROVIDER_CODE。
func ParseProvider(code string) (Provider, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	for _, p := range Providers() {
		if providerSpecs[p].code == normalized {
			return p, nil
		}
	}
	return 0, errs.New(errs.CodeUnknownProvider, "unknown provider code %q", code)
}

// Code 返回 Provider 的文本代码，也用于磁盘编码。
func (p Provider) Code() string {
	return providerSpecs[p].code
}

// BaseURL 返回 Provider 的 API 根地址。
func (p Provider) BaseURL() string {
	return providerSpecs[p].baseURL
}

// Defaults 返回 Provider 的默认过滤条件。
func (p Provider) Defaults() VersionRequirements {
	return providerSpecs[p].defaults
}

// Valid 判断 Provider 是否属于已知集合。
func (p Provider) Valid() bool {
	_, ok := providerSpecs[p]
	return ok
}

func (p Provider) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return p.Code()
}

// MarshalText 实现 encoding.TextMarshaler。
func (p Provider) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, errs.New(errs.CodeUnknownProvider, "unknown provider %d", int(p))
	}
	return []byte(p.Code()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，供配置文件解析使用。
func (p *Provider) UnmarshalText(text []byte) error {
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
