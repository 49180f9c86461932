package version

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/neculai-stanciu/jvc/internal/alias"
	"github.com/neculai-stanciu/jvc/internal/remote"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// Entry 是列表中的一行：版本以及指向它的别名。
type Entry struct {
	Version models.Version
	Path    string // 本地版本目录，远程条目为空
	Aliases []string
}

// Lister 聚合远程与本地版本信息。
type Lister struct {
	remote  remote.PackageClient
	storage storage.LocalStorage
	aliases *alias.Manager
}

// NewLister 创建版本列表服务。
func NewLister(client remote.PackageClient, store storage.LocalStorage, aliases *alias.Manager) *Lister {
	return &Lister{remote: client, storage: store, aliases: aliases}
}

// RemoteVersions 返回远程可用版本，按主版本号升序。
func (l *Lister) RemoteVersions(ctx context.Context, req models.VersionRequirements) ([]Entry, error) {
	if l.remote == nil {
		return nil, errs.New(errs.CodeUnknownProvider, "lister: remote client is required")
	}
	versions, err := l.remote.ListVersions(ctx, req)
	if err != nil {
		return nil, err
	}
	byDisk, err := l.aliasIndex()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, Entry{Version: v, Aliases: byDisk[v.DiskName()]})
	}
	return entries, nil
}

// LocalVersions 返回本地已安装版本，按主版本号升序。
func (l *Lister) LocalVersions() ([]Entry, error) {
	if l.storage == nil {
		return nil, errs.New(errs.CodeIO, "lister: storage is required")
	}
	installed, err := l.storage.InstalledVersions()
	if err != nil {
		return nil, err
	}
	byDisk, err := l.aliasIndex()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(installed))
	for _, iv := range installed {
		entries = append(entries, Entry{Version: iv.Version, Path: iv.Path, Aliases: byDisk[iv.Name]})
	}
	return entries, nil
}

// aliasIndex 按版本目录名归类有效别名。
func (l *Lister) aliasIndex() (map[string][]string, error) {
	index := map[string][]string{}
	if l.aliases == nil {
		return index, nil
	}
	all, err := l.aliases.List()
	if err != nil {
		return nil, err
	}
	for _, a := range all {
		if a.State != alias.Valid || a.Version == nil {
			continue
		}
		key := a.Version.DiskName()
		index[key] = append(index[key], a.Name)
	}
	return index, nil
}

var (
	ltsMarker     = color.New(color.FgBlue).SprintFunc()
	providerColor = color.New(color.FgGreen).SprintFunc()
)

// FormatRemoteEntry 格式化远程版本：LTS 前缀蓝色 *，随后是别名。
func FormatRemoteEntry(e Entry) string {
	return formatEntry(e, false)
}

// FormatLocalEntry 格式化本地版本，额外显示绿色的 Provider。
func FormatLocalEntry(e Entry) string {
	return formatEntry(e, true)
}

func formatEntry(e Entry, withProvider bool) string {
	var b strings.Builder
	if e.Version.LTS {
		b.WriteString(ltsMarker("*"))
	} else {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "- %s", e.Version.Value)
	if withProvider {
		fmt.Fprintf(&b, " - %s", providerColor(e.Version.Provider.Code()))
	}
	for _, name := range e.Aliases {
		fmt.Fprintf(&b, " [%s]", name)
	}
	return b.String()
}
