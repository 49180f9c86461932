package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/neculai-stanciu/jvc/internal/config"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

const (
	blockStart = "# >>> jvc initialize >>>"
	blockEnd   = "# <<< jvc initialize <<<"

	// EnvShellPath 指向当前 shell 会话的符号链接。
	EnvShellPath = "JVC_SHELL_PATH"

	sessionPrefix = "jvc_shell_"
)

// 支持的 shell。
const (
	Bash       = "bash"
	Zsh        = "zsh"
	Fish       = "fish"
	PowerShell = "pwsh"
)

// Shells 返回支持的 shell 名称。
func Shells() []string {
	return []string{Bash, Zsh, Fish, PowerShell}
}

// Layout 是 shell 环境所需的目录布局，由 storage.FileStorage 实现。
type Layout interface {
	Root() string
	DefaultAliasPath() string
}

var _ Layout = (*storage.FileStorage)(nil)

// Manager 生成 shell 环境脚本并维护 rc 文件中的初始化块。
type Manager struct {
	layout Layout
	cfg    models.Config

	homeFn    func() (string, error)
	envFn     func(string) string
	tempDirFn func() string
}

// NewManager 构造环境配置服务。
func NewManager(layout Layout, cfg models.Config) *Manager {
	return &Manager{
		layout:    layout,
		cfg:       cfg,
		homeFn:    os.UserHomeDir,
		envFn:     os.Getenv,
		tempDirFn: os.TempDir,
	}
}

// DetectShell 根据 SHELL 环境变量推断当前 shell。
func (m *Manager) DetectShell() (string, error) {
	shellPath := m.envFn("SHELL")
	if shellPath == "" {
		return "", errs.New(errs.CodeInvalidConfig, "env: cannot detect shell, pass --shell")
	}
	return ParseShell(filepath.Base(shellPath))
}

// ParseShell 校验 shell 名称，powershell 与 pwsh 等价。
func ParseShell(name string) (string, error) {
	switch strings.ToLower(strings.TrimSuffix(name, ".exe")) {
	case Bash:
		return Bash, nil
	case Zsh:
		return Zsh, nil
	case Fish:
		return Fish, nil
	case PowerShell, "powershell":
		return PowerShell, nil
	default:
		return "", errs.New(errs.CodeInvalidConfig, "env: unsupported shell %q", name)
	}
}

// Script 为当前会话创建指向 default 别名的符号链接，并返回导出环境变量的脚本。
func (m *Manager) Script(shell string) (string, error) {
	shell, err := ParseShell(shell)
	if err != nil {
		return "", err
	}

	session := filepath.Join(m.tempDirFn(), sessionPrefix+uuid.NewString())
	if err := os.Symlink(m.layout.DefaultAliasPath(), session); err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "env: create session link %s", session)
	}

	bin := filepath.Join(session, storage.CanonicalDirName, "bin")
	lines := []string{
		prependPath(shell, bin),
		setVar(shell, EnvShellPath, session),
		setVar(shell, config.EnvDir, m.layout.Root()),
		setVar(shell, config.EnvLogLevel, m.cfg.LogLevel),
		setVar(shell, config.EnvProvider, m.cfg.Provider.Code()),
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func prependPath(shell, dir string) string {
	switch shell {
	case Fish:
		return fmt.Sprintf("set -gx PATH %q $PATH", dir)
	case PowerShell:
		return fmt.Sprintf("$env:PATH = %q + [IO.Path]::PathSeparator + $env:PATH", dir)
	default:
		return fmt.Sprintf("export PATH=%q:$PATH", dir)
	}
}

func setVar(shell, name, value string) string {
	switch shell {
	case Fish:
		return fmt.Sprintf("set -gx %s %q", name, value)
	case PowerShell:
		return fmt.Sprintf("$env:%s = %q", name, value)
	default:
		return fmt.Sprintf("export %s=%q", name, value)
	}
}

// UpdateShellConfig 在 shell 的 rc 文件中写入（或替换）初始化块，返回 rc 文件路径。
func (m *Manager) UpdateShellConfig(shell string) (string, error) {
	shell, err := ParseShell(shell)
	if err != nil {
		return "", err
	}

	configPath, err := m.configFileForShell(shell)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "env: ensure config dir")
	}

	var existing []byte
	if data, err := os.ReadFile(configPath); err == nil {
		existing = data
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", errs.Wrap(errs.CodeIO, err, "env: read %s", configPath)
	}

	merged := mergeConfig(string(existing), buildConfigBlock(shell))
	if err := os.WriteFile(configPath, []byte(merged), 0o644); err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "env: write %s", configPath)
	}
	return configPath, nil
}

func (m *Manager) configFileForShell(shell string) (string, error) {
	home, err := m.homeFn()
	if err != nil {
		return "", errs.Wrap(errs.CodeIO, err, "env: home dir")
	}

	switch shell {
	case Bash:
		path := filepath.Join(home, ".bashrc")
		if fileExists(path) {
			return path, nil
		}
		return filepath.Join(home, ".bash_profile"), nil
	case Zsh:
		return filepath.Join(home, ".zshrc"), nil
	case Fish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	case PowerShell:
		return filepath.Join(home, ".config", "powershell", "Microsoft.PowerShell_profile.ps1"), nil
	default:
		return "", errs.New(errs.CodeInvalidConfig, "env: unsupported shell %q", shell)
	}
}

func buildConfigBlock(shell string) string {
	var hook string
	switch shell {
	case Fish:
		hook = "jvc env --shell fish | source"
	case PowerShell:
		hook = "jvc env --shell pwsh | Out-String | Invoke-Expression"
	default:
		hook = fmt.Sprintf("eval \"$(jvc env --shell %s)\"", shell)
	}
	return strings.Join([]string{blockStart, hook, blockEnd}, "\n")
}

func mergeConfig(existing, block string) string {
	cleaned := removeExistingBlock(existing)
	cleaned = strings.TrimRight(cleaned, "\n")
	if strings.TrimSpace(cleaned) == "" {
		return block + "\n"
	}
	return cleaned + "\n\n" + block + "\n"
}

func removeExistingBlock(content string) string {
	var builder strings.Builder
	skipping := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == blockStart {
			skipping = true
			continue
		}
		if trimmed == blockEnd {
			skipping = false
			continue
		}
		if skipping {
			continue
		}
		if line == "" && builder.Len() == 0 {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(line)
	}
	return strings.Trim(builder.String(), "\n")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
