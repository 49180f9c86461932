// Package config 解析 jvc 的全局配置。
//
// 每个字段按 命令行参数 > 环境变量 > <root>/config.toml > 内置默认值 的顺序取值。
// 根目录本身不能写在配置文件里，只能来自参数、环境变量或默认的 ~/.jvc。
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// 环境变量名。
const (
	EnvDir      = "JVC_DIR"
	EnvProvider = "JVC_PROVIDER"
	EnvLogLevel = "JVC_LOGLEVEL"
)

const (
	// FileName 是根目录下的配置文件名。
	FileName = "config.toml"
	// DefaultDirName 是用户主目录下的默认根目录名。
	DefaultDirName = ".jvc"

	defaultLogLevel = "info"
)

// Overrides 保存来自命令行参数的取值，空字符串表示未设置。
type Overrides struct {
	RootDir      string
	Provider     string
	LogLevel     string
	Requirements models.VersionRequirements
}

// fileConfig 对应 config.toml 的结构。
type fileConfig struct {
	Provider     string                     `toml:"provider"`
	LogLevel     string                     `toml:"log_level"`
	Requirements models.VersionRequirements `toml:"requirements"`
}

// Loader 负责合并各来源的配置。
type Loader struct {
	envFn    func(string) string
	homeFn   func() (string, error)
	expandFn func(string) (string, error)
}

// Option 配置 Loader。
type Option func(*Loader)

// WithEnv 替换环境变量读取函数。
func WithEnv(fn func(string) string) Option {
	return func(l *Loader) {
		if fn != nil {
			l.envFn = fn
		}
	}
}

// WithHome 替换用户主目录探测函数。
func WithHome(fn func() (string, error)) Option {
	return func(l *Loader) {
		if fn != nil {
			l.homeFn = fn
			l.expandFn = func(p string) (string, error) {
				if p != "~" && !strings.HasPrefix(p, "~/") {
					return p, nil
				}
				home, err := fn()
				if err != nil {
					return "", err
				}
				return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
			}
		}
	}
}

// NewLoader 创建 Loader。
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		envFn:    os.Getenv,
		homeFn:   homedir.Dir,
		expandFn: homedir.Expand,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load 使用进程环境解析配置。
func Load(o Overrides) (models.Config, error) {
	return NewLoader().Load(o)
}

// Load 合并参数、环境变量、配置文件与默认值。
func (l *Loader) Load(o Overrides) (models.Config, error) {
	root, err := l.resolveRoot(o.RootDir)
	if err != nil {
		return models.Config{}, err
	}

	file, err := readFile(filepath.Join(root, FileName))
	if err != nil {
		return models.Config{}, err
	}

	provider, err := l.resolveProvider(o.Provider, file.Provider)
	if err != nil {
		return models.Config{}, err
	}

	level, err := l.resolveLogLevel(o.LogLevel, file.LogLevel)
	if err != nil {
		return models.Config{}, err
	}

	return models.Config{
		RootDir:      root,
		Provider:     provider,
		LogLevel:     level,
		Requirements: o.Requirements.Or(file.Requirements),
	}, nil
}

// Root 只解析状态根目录（参数 > JVC_DIR > ~/.jvc），不读取配置文件。
func (l *Loader) Root(flagValue string) (string, error) {
	return l.resolveRoot(flagValue)
}

func (l *Loader) resolveRoot(flagValue string) (string, error) {
	root := firstSet(flagValue, l.envFn(EnvDir))
	if root == "" {
		home, err := l.homeFn()
		if err != nil {
			return "", errs.Wrap(errs.CodeInvalidConfig, err, "config: cannot determine home directory, set %s", EnvDir)
		}
		root = filepath.Join(home, DefaultDirName)
	}

	expanded, err := l.expandFn(root)
	if err != nil {
		return "", errs.Wrap(errs.CodeInvalidConfig, err, "config: expand %s", root)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errs.Wrap(errs.CodeInvalidConfig, err, "config: resolve %s", expanded)
	}
	return abs, nil
}

func (l *Loader) resolveProvider(flagValue, fileValue string) (models.Provider, error) {
	if value := firstSet(flagValue, l.envFn(EnvProvider)); value != "" {
		return models.ParseProvider(value)
	}
	if fileValue != "" {
		p, err := models.ParseProvider(fileValue)
		if err != nil {
			return 0, errs.Wrap(errs.CodeInvalidConfig, err, "config: %s has invalid provider", FileName)
		}
		return p, nil
	}
	return models.AdoptOpenJDK, nil
}

func (l *Loader) resolveLogLevel(flagValue, fileValue string) (string, error) {
	value := firstSet(flagValue, l.envFn(EnvLogLevel), fileValue)
	if value == "" {
		return defaultLogLevel, nil
	}
	return NormalizeLogLevel(value)
}

// NormalizeLogLevel 把日志级别别名归一：all→debug，quiet→silent。
func NormalizeLogLevel(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "all":
		return "debug", nil
	case "info":
		return "info", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	case "silent", "quiet":
		return "silent", nil
	default:
		return "", errs.New(errs.CodeInvalidConfig, "config: unknown log level %q", value)
	}
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return fc, errs.Wrap(errs.CodeInvalidConfig, err, "config: open %s", path)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&fc); err != nil {
		return fc, errs.Wrap(errs.CodeInvalidConfig, err, "config: parse %s", path)
	}
	return fc, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
