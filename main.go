package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exmirror/gallerysync/catalog"
	"github.com/exmirror/gallerysync/common"
	"github.com/exmirror/gallerysync/compose"
	"github.com/exmirror/gallerysync/pipeline"
	"github.com/exmirror/gallerysync/state"
	"github.com/exmirror/gallerysync/syncer"
	"github.com/exmirror/gallerysync/telegram"
	"github.com/exmirror/gallerysync/telegraph"
)

const translationFile = "translations.json"

type app struct {
	cfg    *common.Config
	store  *state.BoltStore
	syncer *syncer.Syncer
}

func newApp(configPath string) (*app, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	store, err := state.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	translator := compose.NewTranslator()
	if _, err := os.Stat(translationFile); err == nil {
		translator, err = compose.LoadTranslator(translationFile)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	cat := catalog.NewClient(cfg.Catalog)
	host := telegraph.NewClient(cfg.Telegraph.Token)
	bot := telegram.NewBot(cfg.Telegram.Token)

	var files *pipeline.FileCache
	if cfg.Catalog.LocalCache {
		files = pipeline.NewFileCache(cfg.Catalog.CachePath)
	}
	resolver := pipeline.NewResolver(cat, host, store, files, cfg.Workers, common.ImageRetry())

	return &app{
		cfg:    cfg,
		store:  store,
		syncer: syncer.New(cat, host, bot, resolver, store, translator, cfg),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
}

// withRetry runs one pass attempt with the top-level retry budget, flushing
// the store between attempts so a later crash cannot lose finished work.
func (a *app) withRetry(ctx context.Context, op func(context.Context) error) error {
	return common.PassRetry().Do(ctx, func() error {
		err := op(ctx)
		if ferr := a.store.Flush(); ferr != nil {
			log.Error().Err(ferr).Msg("failed to flush store")
		}
		if err != nil {
			log.Error().Err(err).Msg("pass failed")
		}
		return err
	})
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "gallerysync",
		Short:         "Mirrors catalog galleries to a hosted article and a channel",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return a.withRetry(cmd.Context(), func(ctx context.Context) error {
				_, err := a.syncer.ScanPass(ctx)
				return err
			})
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "upload <url>",
		Short: "Force a full mirror of one gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return a.withRetry(cmd.Context(), func(ctx context.Context) error {
				return a.syncer.UploadByURL(ctx, args[0])
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Write the whole store as JSON to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return a.store.Dump(os.Stdout)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "load <file>",
		Short: "Bulk-import a store dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if err := a.store.Load(f); err != nil {
				return err
			}
			return a.store.Flush()
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
