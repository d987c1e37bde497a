package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"slices"

	"github.com/adrg/xdg"
	"github.com/leighmacdonald/cs2-friends/internal/config"
	"github.com/leighmacdonald/cs2-friends/internal/presence"
	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/cs2-friends/internal/store"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/spf13/cobra"
)

var noSteamID steamid.SteamID //nolint:gochecknoglobals

var (
	errNoCredential = errors.New("no credential configured, set credential in the config file or CS2FRIENDS_CREDENTIAL")
	errNoSteamID    = errors.New("a steam_id or vanity_url is required when using a web api key")
)

// app holds everything a command needs. Close must be called when done.
type app struct {
	conf       config.Config
	loader     *config.Loader
	logger     *slog.Logger
	database   *sql.DB
	settings   *store.SQLSettings
	client     *steamweb.Client
	aggregator *presence.Aggregator
	credential string
	closers    []io.Closer
}

func (a *app) Close() {
	for _, closer := range slices.Backward(a.closers) {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close resource", slog.String("error", err.Error()))
		}
	}
}

// newApp loads configuration and builds the api client. The credential falls back to the one saved
// by a previous run when none is configured.
func newApp(cmd *cobra.Command, changes chan<- config.Config) (*app, error) {
	// Make sure our config & data home exists.
	if err := os.MkdirAll(path.Join(xdg.ConfigHome, config.ConfigDirName), 0o750); err != nil {
		return nil, errors.Join(err, errApp)
	}

	loader := config.NewLoader(changes)
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	conf, errConfig := loader.Read()
	if errConfig != nil {
		return nil, errors.Join(errConfig, errApp)
	}

	logger, logCloser, errLogger := config.LoggerInit(conf.LogFile, conf.LogLevel)
	if errLogger != nil {
		return nil, errors.Join(errLogger, errApp)
	}
	slog.SetDefault(logger)

	application := &app{conf: conf, loader: loader, logger: logger, closers: []io.Closer{logCloser}}

	database, errDB := store.Open(cmd.Context(), conf.DatabasePath, true)
	if errDB != nil {
		application.Close()

		return nil, errors.Join(errDB, errApp)
	}
	application.database = database
	application.closers = append(application.closers, database)
	application.settings = store.NewSettingsStore(database)

	application.credential = conf.Credential
	if application.credential == "" {
		saved, errSaved := store.LoadSettings(cmd.Context(), application.settings)
		if errSaved != nil {
			logger.Warn("Failed to load saved settings", slog.String("error", errSaved.Error()))
		}
		application.credential = saved.Credential
	}

	httpClient := &http.Client{Timeout: config.DefaultHTTPTimeout}
	application.client = steamweb.New(conf.APIBaseURL, httpClient, logger)
	application.aggregator = presence.NewAggregator(application.client, application.client.PlayerSummaries, logger)

	return application, nil
}

// self works out whose friends list to load. Tokens carry the owner, keys need it configured.
func (a *app) self(ctx context.Context) (steamid.SteamID, error) {
	if a.conf.SteamID.Valid() {
		return a.conf.SteamID, nil
	}

	if steamweb.Classify(a.credential) == steamweb.ModeToken {
		if claims, ok := steamweb.DecodeTokenClaims(a.credential); ok && claims.SubjectID.Valid() {
			return claims.SubjectID, nil
		}
	}

	if a.conf.VanityURL != "" {
		return a.client.ResolveVanityURL(ctx, a.credential, a.conf.VanityURL)
	}

	if steamweb.Classify(a.credential) == steamweb.ModeToken {
		return noSteamID, nil
	}

	return noSteamID, errNoSteamID
}

func (a *app) requireCredential() error {
	if a.credential == "" {
		return errNoCredential
	}

	return nil
}
