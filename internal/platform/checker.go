package platform

import (
	"runtime"

	"github.com/neculai-stanciu/jvc/pkg/models"
)

// Info 描述当前运行平台，取值为 Go 的 GOOS/GOARCH。
type Info struct {
	OS   string
	Arch string
}

// Detect 返回当前进程所在的平台。
func Detect() Info {
	return Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

var osNames = map[models.Provider]map[string]string{
	models.AdoptOpenJDK: {
		"linux":   "linux",
		"darwin":  "mac",
		"windows": "windows",
		"aix":     "aix",
		"solaris": "solaris",
	},
	models.Azul: {
		"linux":   "linux",
		"darwin":  "macos",
		"windows": "windows",
		"solaris": "solaris",
	},
}

var archNames = map[models.Provider]map[string]string{
	models.AdoptOpenJDK: {
		"amd64":   "x64",
		"386":     "x32",
		"arm64":   "aarch64",
		"arm":     "arm",
		"ppc64":   "ppc64",
		"ppc64le": "ppc64le",
		"s390x":   "s390x",
		"riscv64": "riscv64",
	},
	models.Azul: {
		"amd64": "x86",
		"386":   "x86",
		"arm64": "arm",
		"arm":   "arm",
		"ppc64": "ppc",
	},
}

// Requirements 把平台信息翻译成 Provider 的取值；无法映射的字段保持为空，由 Provider 默认值兜底。
func (i Info) Requirements(p models.Provider) models.VersionRequirements {
	return models.VersionRequirements{
		OS:   osNames[p][i.OS],
		Arch: archNames[p][i.Arch],
	}
}

// Bitness 返回 CPU 字长（"64" 或 "32"），未知架构返回空串。
func (i Info) Bitness() string {
	switch i.Arch {
	case "amd64", "arm64", "ppc64", "ppc64le", "s390x", "riscv64", "loong64", "mips64", "mips64le":
		return "64"
	case "386", "arm", "mips", "mipsle":
		return "32"
	default:
		return ""
	}
}

// Supported 判断当前平台能否为该 Provider 自动推断 OS 与架构。
func (i Info) Supported(p models.Provider) bool {
	req := i.Requirements(p)
	return req.OS != "" && req.Arch != ""
}
