package models

// Config 保存 jvc 的全局配置，由 internal/config 按 flag、环境变量、配置文件、默认值的顺序解析。
type Config struct {
	RootDir      string              // jvc 根目录，默认 ~/.jvc
	Provider     Provider            // 远程构建来源
	LogLevel     string              // debug、info、warn、error 或 silent
	Requirements VersionRequirements // 用户级默认过滤条件
}

// InstalledVersion 表示安装根目录下的一个版本目录。
type InstalledVersion struct {
	Name    string  // 目录名，即 Version 的磁盘编码
	Path    string  // 版本目录的绝对路径
	Version Version // 由目录名解码得到
}

// DownloadArtifact 表示下载目录中的一个临时安装包。
type DownloadArtifact struct {
	Path        string  // 本地文件路径，文件名为原始主版本号
	PackageName string  // 供应商给出的包名，用于判断归档类型
	Version     Version // 解析到的版本，Semver 在下载时填充
	Size        int64   // 实际写入的字节数
}
