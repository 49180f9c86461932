// Package cli 实现 jvc 命令行：解析全局配置、准备目录布局，然后分发到各子命令。
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/neculai-stanciu/jvc/internal/alias"
	"github.com/neculai-stanciu/jvc/internal/config"
	"github.com/neculai-stanciu/jvc/internal/remote"
	"github.com/neculai-stanciu/jvc/internal/storage"
	"github.com/neculai-stanciu/jvc/pkg/errs"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

// ClientFactory 按 Provider 创建远程客户端，测试时可替换。
type ClientFactory func(models.Provider, ...remote.Option) (remote.PackageClient, error)

// App 负责 CLI 命令解析与分发。
type App struct {
	out     io.Writer
	errOut  io.Writer
	version string

	newClient ClientFactory
	loader    *config.Loader

	logger  *log.Logger
	flags   globalFlags
	req     models.VersionRequirements
	cfg     models.Config
	store   *storage.FileStorage
	aliases *alias.Manager
}

type globalFlags struct {
	rootDir  string
	provider string
	logLevel string
}

// Option 配置 App。
type Option func(*App)

// WithClientFactory 替换远程客户端的构造方式。
func WithClientFactory(f ClientFactory) Option {
	return func(a *App) {
		if f != nil {
			a.newClient = f
		}
	}
}

// WithConfigLoader 替换配置加载器。
func WithConfigLoader(l *config.Loader) Option {
	return func(a *App) {
		if l != nil {
			a.loader = l
		}
	}
}

// NewApp 创建 CLI 应用实例。
func NewApp(out, errOut io.Writer, version string, opts ...Option) *App {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	a := &App{
		out:       out,
		errOut:    errOut,
		version:   version,
		newClient: remote.NewClient,
		loader:    config.NewLoader(),
		logger:    newLogger(errOut, log.InfoLevel),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run 解析参数并执行命令。下载目录在任何命令之前清空，配置文件是否有效都不影响。
func (a *App) Run(ctx context.Context, args []string) error {
	a.purgeDownloads(args)

	root := a.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// RootCommand 创建注册了全部子命令的根命令。
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "jvc",
		Short:             "jvc manages Java runtimes",
		Long:              "jvc installs JDK builds from AdoptOpenJDK or Azul, keeps several side by side and switches the default one through aliases.",
		Version:           a.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.rootDir, "jvc-dir", "", "root directory for jvc state (env "+config.EnvDir+", default ~/.jvc)")
	pf.StringVarP(&a.flags.provider, "provider", "p", "", "JDK provider: adoptopenjdk or azul (env "+config.EnvProvider+")")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug|all, info, warn, error, silent|quiet (env "+config.EnvLogLevel+")")

	root.AddCommand(a.listCommand())
	root.AddCommand(a.installCommand())
	root.AddCommand(a.removeCommand())
	root.AddCommand(a.aliasCommand())
	root.AddCommand(a.defaultCommand())
	root.AddCommand(a.envCommand())
	root.AddCommand(a.setupCommand())
	return root
}

// prepare 解析配置并设置日志。
func (a *App) prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loader.Load(config.Overrides{
		RootDir:      a.flags.rootDir,
		Provider:     a.flags.provider,
		LogLevel:     a.flags.logLevel,
		Requirements: a.req,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.configureLogger(cfg.LogLevel)

	a.store = storage.NewFileStorage(cfg)
	a.aliases = alias.NewManager(a.store, alias.WithLogger(a.logger))
	a.logger.Debug("configuration resolved", "root", cfg.RootDir, "provider", cfg.Provider, "level", cfg.LogLevel)

	cmd.SetContext(withLogger(cmd.Context(), a.logger))
	return nil
}

// purgeDownloads 只按 --jvc-dir、JVC_DIR 或主目录定位根目录，然后删除下载目录。
// 失败只记录警告，配置错误留给命令执行时报告。
func (a *App) purgeDownloads(args []string) {
	root, err := a.loader.Root(rootDirArg(args))
	if err != nil {
		a.logger.Warn("cannot locate downloads to purge", "err", errs.UserMessage(err))
		return
	}
	if err := storage.NewFileStorage(models.Config{RootDir: root}).PurgeDownloads(); err != nil {
		a.logger.Warn("cannot purge downloads", "err", errs.UserMessage(err))
	}
}

// rootDirArg 在 cobra 解析之前从原始参数中取出 --jvc-dir。
func rootDirArg(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if value, ok := strings.CutPrefix(arg, "--jvc-dir="); ok {
			return value
		}
		if arg == "--jvc-dir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func (a *App) configureLogger(level string) {
	if level == "silent" {
		a.logger.SetOutput(io.Discard)
		return
	}
	a.logger.SetLevel(levelFor(level))
}

func (a *App) silent() bool {
	return a.cfg.LogLevel == "silent"
}

// client 按当前配置创建远程客户端，下载进度输出到 stderr。
func (a *App) client(bar *progressBar) (remote.PackageClient, error) {
	opts := []remote.Option{remote.WithLogger(a.logger)}
	if bar != nil {
		opts = append(opts, remote.WithProgressFunc(bar.Update))
	}
	return a.newClient(a.cfg.Provider, opts...)
}

func (a *App) progress(label string) *progressBar {
	if a.silent() {
		return nil
	}
	return newProgressBar(a.errOut, label)
}

func (a *App) warnf(format string, args ...any) {
	if a.silent() {
		return
	}
	_, _ = color.New(color.FgYellow).Fprintf(a.errOut, format+"\n", args...)
}

// addRequirementFlags 注册查询过滤条件参数，取值写入 a.req。
func (a *App) addRequirementFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.req.Arch, "arch", "", "architecture, e.g. x64, aarch64")
	f.StringVar(&a.req.ImageType, "image-type", "", "image type: jdk or jre")
	f.StringVar(&a.req.JVMImpl, "jvm-impl", "", "JVM implementation: hotspot or openj9")
	f.StringVar(&a.req.HeapSize, "heap-size", "", "heap size: normal or large")
	f.StringVar(&a.req.ReleaseType, "release-type", "", "release type: ga or ea")
	f.StringVar(&a.req.Vendor, "vendor", "", "vendor, e.g. adoptopenjdk")
	f.StringVar(&a.req.Project, "project", "", "project, e.g. jdk")
	f.StringVar(&a.req.OS, "os", "", "operating system, e.g. linux, mac, windows")
}
