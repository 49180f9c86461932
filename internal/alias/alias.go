// Package alias 管理 aliases 目录下指向版本目录的符号链接。
//
// 所有创建与重新绑定都走同一条路径：先在同目录下创建唯一命名的临时链接，
// 再用 rename 覆盖目标别名，因此替换单个别名是原子的。
package alias

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// DefaultName 是 shell 环境使用的保留别名。
const DefaultName = storage.DefaultAlias

const tempPrefix = ".tmp-"

// State 描述别名当前的状态。
type State int

const (
	Absent State = iota
	Valid
	Dangling
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Dangling:
		return "dangling"
	default:
		return "absent"
	}
}

// Alias 是 aliases 目录中的一个符号链接。
type Alias struct {
	Name    string
	Path    string
	Target  string
	State   State
	Version *models.Version // 仅在 State 为 Valid 时非空
}

// Store 是别名管理所需的存储能力，由 storage.FileStorage 实现。
type Store interface {
	AliasesDir() string
	FindByNumericVersion(n int) (models.InstalledVersion, bool, error)
}

// Option 配置 Manager。
type Option func(*Manager)

// WithLogger 指定日志输出。
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager 负责别名的解析、创建、枚举与删除。
type Manager struct {
	store  Store
	logger *log.Logger
}

// NewManager 创建 Manager。
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ValidateName 检查别名是否合法：不能是版本号，不能为空，不能以点开头或包含路径分隔符。
func ValidateName(name string) error {
	switch {
	case name == "":
		return errs.New(errs.CodeInvalidAliasName, "alias name is empty")
	case looksNumeric(name):
		return errs.New(errs.CodeInvalidAliasName, "alias name %q looks like a version number", name)
	case strings.HasPrefix(name, "."):
		return errs.New(errs.CodeInvalidAliasName, "alias name %q must not start with a dot", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, os.PathSeparator):
		return errs.New(errs.CodeInvalidAliasName, "alias name %q must not contain path separators", name)
	case strings.TrimSpace(name) != name:
		return errs.New(errs.CodeInvalidAliasName, "alias name %q has surrounding whitespace", name)
	}
	return nil
}

// looksNumeric 判断去掉空白后是否全是数字；这类文本一律按版本号处理，不会当作别名。
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.store.AliasesDir(), name)
}

// Resolve 把版本号或别名解析为版本目录路径。
func (m *Manager) Resolve(selector string) (string, error) {
	if looksNumeric(selector) {
		n, err := models.ParseVersionNumber(selector)
		if err != nil {
			return "", err
		}
		installed, ok, err := m.store.FindByNumericVersion(n)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errs.New(errs.CodeVersionNotInstalled, "version %d is not installed", n)
		}
		return installed.Path, nil
	}

	a, err := m.Get(selector)
	if err != nil {
		return "", err
	}
	switch a.State {
	case Absent:
		return "", errs.New(errs.CodeAliasNotFound, "alias %q does not exist", selector)
	case Dangling:
		return "", errs.New(errs.CodeVersionNotInstalled, "alias %q points to %s which is not installed", selector, a.Target)
	}
	return a.Target, nil
}

// CreateOrUpdate 把别名 name 绑定到 selector 解析出的版本目录。
// selector 为别名时只复制其目标，selector 本身保持不变。
func (m *Manager) CreateOrUpdate(name, selector string) (Alias, error) {
	if err := ValidateName(name); err != nil {
		return Alias{}, err
	}
	target, err := m.Resolve(selector)
	if err != nil {
		return Alias{}, err
	}

	dir := m.store.AliasesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Alias{}, errs.Wrap(errs.CodeIO, err, "alias: create %s", dir)
	}

	tmp := filepath.Join(dir, tempPrefix+uuid.NewString())
	if err := os.Symlink(target, tmp); err != nil {
		return Alias{}, errs.Wrap(errs.CodeIO, err, "alias: link %s", tmp)
	}
	if err := os.Rename(tmp, m.path(name)); err != nil {
		_ = os.Remove(tmp)
		return Alias{}, errs.Wrap(errs.CodeIO, err, "alias: bind %s", name)
	}
	m.logger.Debug("alias bound", "name", name, "target", target)

	return m.Get(name)
}

// Get 读取别名；不存在时返回 State 为 Absent 的结果而非错误。
func (m *Manager) Get(name string) (Alias, error) {
	a := Alias{Name: name, Path: m.path(name)}

	info, err := os.Lstat(a.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return a, nil
		}
		return Alias{}, errs.Wrap(errs.CodeIO, err, "alias: stat %s", a.Path)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		a.State = Dangling
		return a, nil
	}

	target, err := os.Readlink(a.Path)
	if err != nil {
		return Alias{}, errs.Wrap(errs.CodeIO, err, "alias: read %s", a.Path)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(a.Path), target)
	}
	a.Target = target
	a.State = Dangling

	if st, err := os.Stat(target); err != nil || !st.IsDir() {
		return a, nil
	}
	v, err := models.ParseDiskName(filepath.Base(target))
	if err != nil {
		return a, nil
	}
	a.State = Valid
	a.Version = &v
	return a, nil
}

// List 返回 aliases 目录中的全部符号链接，按名称排序；无法解析的别名标记为 Dangling。
func (m *Manager) List() ([]Alias, error) {
	entries, err := os.ReadDir(m.store.AliasesDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Alias{}, nil
		}
		return nil, errs.Wrap(errs.CodeIO, err, "alias: read %s", m.store.AliasesDir())
	}

	aliases := make([]Alias, 0, len(entries))
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		a, err := m.Get(entry.Name())
		if err != nil {
			m.logger.Debug("skip unreadable alias", "name", entry.Name(), "err", err)
			a = Alias{Name: entry.Name(), Path: m.path(entry.Name()), State: Dangling}
		}
		aliases = append(aliases, a)
	}
	return aliases, nil
}

// PointingAt 返回目标为 versionPath 的所有别名。
func (m *Manager) PointingAt(versionPath string) ([]Alias, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	want := filepath.Clean(versionPath)
	var matched []Alias
	for _, a := range all {
		if a.Target != "" && filepath.Clean(a.Target) == want {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// Remove 删除别名链接，不存在时返回 ALIAS_NOT_FOUND。
func (m *Manager) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	p := m.path(name)
	if _, err := os.Lstat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errs.New(errs.CodeAliasNotFound, "alias %q does not exist", name)
		}
		return errs.Wrap(errs.CodeIO, err, "alias: stat %s", p)
	}
	if err := os.Remove(p); err != nil {
		return errs.Wrap(errs.CodeIO, err, "alias: remove %s", p)
	}
	return nil
}
