package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/neculai-stanciu/jvc/pkg/errs"
)

const ltsMarker = "lts"

// Version 描述一个 Java 主版本，远程列表与本地目录名都会还原成它。
type Version struct {
	Value    string   // 主版本号文本，例如 17
	LTS      bool     // 是否为长期支持版本
	Provider Provider // 构建来源
	Semver   string   // 下载时解析出的完整版本，例如 17.0.9+9，磁盘编码中不保存
}

// NewVersion 由主版本号构造 Version。
func NewVersion(value int, lts bool, provider Provider) Version {
	return Version{
		Value:    strconv.Itoa(value),
		LTS:      lts,
		Provider: provider,
	}
}

// DiskName 返回版本目录名：<value>-<provider> 或 <value>-lts-<provider>。
func (v Version) DiskName() string {
	if v.LTS {
		return fmt.Sprintf("%s-%s-%s", v.Value, ltsMarker, v.Provider.Code())
	}
	return fmt.Sprintf("%s-%s", v.Value, v.Provider.Code())
}

// ParseDiskName 由目录名还原 Version，格式不符时返回 INVALID_VERSION。
func ParseDiskName(name string) (Version, error) {
	segments := strings.Split(name, "-")

	var value, code string
	lts := false
	switch {
	case len(segments) == 2:
		value, code = segments[0], segments[1]
	case len(segments) == 3 && segments[1] == ltsMarker:
		value, code, lts = segments[0], segments[2], true
	default:
		return Version{}, errs.New(errs.CodeInvalidVersion, "cannot decode version directory %q", name)
	}

	if !IsVersionNumber(value) {
		return Version{}, errs.New(errs.CodeInvalidVersion, "version directory %q has non-numeric value %q", name, value)
	}
	provider, err := ParseProvider(code)
	if err != nil {
		return Version{}, errs.Wrap(errs.CodeInvalidVersion, err, "cannot decode version directory %q", name)
	}

	return Version{Value: value, LTS: lts, Provider: provider}, nil
}

// ParseVersionNumber 解析主版本号（0-255）。只接受规范十进制写法：不带空白、符号或前导零。
func ParseVersionNumber(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, errs.Wrap(errs.CodeInvalidVersion, err, "%q is not a version number", s)
	}
	if strconv.FormatUint(n, 10) != s {
		return 0, errs.New(errs.CodeInvalidVersion, "%q is not a version number, write it as %d", s, n)
	}
	return int(n), nil
}

// IsVersionNumber 判断文本是否为规范的主版本号。
func IsVersionNumber(s string) bool {
	_, err := ParseVersionNumber(s)
	return err == nil
}

// Number 返回数值形式的主版本号。
func (v Version) Number() (int, error) {
	return ParseVersionNumber(v.Value)
}

func (v Version) String() string {
	return v.Value
}

// CompareNumeric 按主版本号数值比较，无法解析的值视为 0。
func CompareNumeric(a, b Version) int {
	na, _ := a.Number()
	nb, _ := b.Number()
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

// SortNumeric 按主版本号升序原地排序。
func SortNumeric(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareNumeric(versions[i], versions[j]) < 0
	})
}
