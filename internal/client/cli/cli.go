// Package cli реализует командную строку zonesync.
//
// Команды делятся на две группы: run и sync работают с удалённым хранилищем через
// движок синхронизации, остальные (put, rm, list, get, status, history) читают и
// изменяют только локальную базу. Локальная база bbolt открывается одним процессом,
// поэтому офлайн-команды нельзя выполнять, пока работает демон.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iudanet/zonesync/internal/client/api"
	"github.com/iudanet/zonesync/internal/client/iocli"
	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/config"
	"github.com/iudanet/zonesync/internal/logging"
)

// annotationNoConfig помечает команды, которым не нужны конфигурация и логгер
const annotationNoConfig = "zonesync/no-config"

// BuildInfo версия сборки, заполняется через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// RemoteFactory создает клиент удалённого хранилища
type RemoteFactory func(cfg *config.Config, tokens api.TokenProvider, logger *slog.Logger) remote.Store

type Cli struct {
	io        iocli.IO
	stderr    *os.File
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	newRemote RemoteFactory
	now       func() time.Time
	build     BuildInfo

	configFile string
}

// Option настраивает Cli
type Option func(*Cli)

// WithRemote подменяет клиент удалённого хранилища
func WithRemote(f RemoteFactory) Option {
	return func(c *Cli) {
		c.newRemote = f
	}
}

// WithStderr задаёт поток для логов, когда log.file не указан
func WithStderr(f *os.File) Option {
	return func(c *Cli) {
		c.stderr = f
	}
}

func New(stdio iocli.IO, build BuildInfo, opts ...Option) *Cli {
	c := &Cli{
		io:        stdio,
		stderr:    os.Stderr,
		newRemote: defaultRemote,
		now:       time.Now,
		build:     build,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultRemote(cfg *config.Config, tokens api.TokenProvider, logger *slog.Logger) remote.Store {
	return api.NewClient(cfg.Remote.URL, tokens, logger,
		api.WithTimeout(cfg.Remote.Timeout),
		api.WithPageLimit(cfg.Remote.PageLimit),
	)
}

// Execute разбирает args и выполняет команду
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.Command()
	root.SetArgs(args)
	defer c.closeLogger()
	return root.ExecuteContext(ctx)
}

// Command строит дерево команд
func (c *Cli) Command() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "zonesync",
		Short:         "Synchronize a local record collection with a remote zone",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}
			return c.setup(v, cmd)
		},
	}
	root.SetOut(c.io)
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "Config file (default: zonesync.yaml in the current or data directory)")
	config.RegisterFlags(flags)

	root.AddCommand(
		c.runCommand(),
		c.syncCommand(),
		c.statusCommand(),
		c.resetCommand(),
		c.historyCommand(),
		c.putCommand(),
		c.rmCommand(),
		c.listCommand(),
		c.getCommand(),
		c.versionCommand(),
	)
	return root
}

func (c *Cli) setup(v *viper.Viper, cmd *cobra.Command) error {
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v, c.configFile)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, c.stderr)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	c.logCloser = closer
	c.logger.Debug("Config loaded", "config", v.ConfigFileUsed(), "zone", cfg.Zone.Name, "remote", cfg.Remote.URL)
	return nil
}

func (c *Cli) closeLogger() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}
