package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "S3TRANSFER"

// app carries the state shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	cmd := &cobra.Command{
		Use:   "s3transfer",
		Short: "Multipart transfers to and from S3-compatible storage",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			a.logger = newLogger(a.errOut, a.v.GetBool("verbose"))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", "", "config file (default $HOME/.config/s3transfer/config.yaml)")
	flags.String("backend", "s3", "client backend: s3 or minio")
	flags.String("endpoint", "", "custom endpoint URL for S3-compatible services")
	flags.String("region", "", "bucket region")
	flags.Bool("path-style", false, "use path-style bucket addressing")
	flags.String("access-key", "", "static access key id")
	flags.String("secret-key", "", "static secret access key")
	flags.Int("concurrency", 0, "parts in flight per transfer (default 5)")
	flags.String("part-size", "", "minimum part size, e.g. 16MiB (default 5MiB)")
	flags.Int("max-attempts", 0, "attempts per part (default 4)")
	flags.Duration("part-timeout", 0, "timeout for a single part attempt")
	flags.Bool("skew-correction", true, "correct the signing clock after skew rejections")
	flags.Bool("progress", true, "show a progress bar")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newUploadCmd(a), newDownloadCmd(a))
	return cmd
}

// loadConfig layers the config file, S3TRANSFER_* environment variables and
// flags into the app's viper instance.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		path, _ := cmd.Flags().GetString("config")
		a.v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "s3transfer"))
		}
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config read '%s': %w", a.v.ConfigFileUsed(), err)
		}
	}

	for _, name := range []string{
		"backend", "endpoint", "region", "path-style", "access-key", "secret-key",
		"concurrency", "part-size", "max-attempts", "part-timeout", "skew-correction",
		"progress", "verbose",
	} {
		if err := a.v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(envKeyReplacer)
	a.v.AutomaticEnv()
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}
