package models

// VersionRequirements 是查询构建时使用的过滤条件，空字符串表示未设置。
// 各字段含义随 Provider 不同：Azul 把 ImageType 当作 bundle_type，
// 把 ReleaseType 当作 release_status，其余 Azul 不支持的字段会被忽略。
type VersionRequirements struct {
	Arch        string `toml:"arch,omitempty"`
	ImageType   string `toml:"image_type,omitempty"`
	JVMImpl     string `toml:"jvm_impl,omitempty"`
	HeapSize    string `toml:"heap_size,omitempty"`
	ReleaseType string `toml:"release_type,omitempty"`
	Vendor      string `toml:"vendor,omitempty"`
	Project     string `toml:"project,omitempty"`
	OS          string `toml:"os,omitempty"`
}

// Or 返回新的条件集合：自身未设置的字段取 fallback 中的值。
func (r VersionRequirements) Or(fallback VersionRequirements) VersionRequirements {
	return VersionRequirements{
		Arch:        firstNonEmpty(r.Arch, fallback.Arch),
		ImageType:   firstNonEmpty(r.ImageType, fallback.ImageType),
		JVMImpl:     firstNonEmpty(r.JVMImpl, fallback.JVMImpl),
		HeapSize:    firstNonEmpty(r.HeapSize, fallback.HeapSize),
		ReleaseType: firstNonEmpty(r.ReleaseType, fallback.ReleaseType),
		Vendor:      firstNonEmpty(r.Vendor, fallback.Vendor),
		Project:     firstNonEmpty(r.Project, fallback.Project),
		OS:          firstNonEmpty(r.OS, fallback.OS),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
