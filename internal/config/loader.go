package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/spf13/viper"
)

// Loader handles setting up viper, loading configuration from files, and broadcasting configuration changes.
type Loader struct {
	*viper.Viper
	changes chan<- Config
}

func NewLoader(changes chan<- Config) *Loader {
	loader := Loader{changes: changes, Viper: viper.New()}
	loader.SetDefault("credential", "")
	loader.SetDefault("steam_id", "")
	loader.SetDefault("vanity_url", "")
	loader.SetDefault("api_base_url", steamweb.DefaultBaseURL)
	loader.SetDefault("update_freq_ms", 30000)
	loader.SetDefault("log_level", "info")
	loader.SetDefault("log_file", "")
	loader.SetDefault("http_listen_address", "127.0.0.1:27080")
	loader.SetDefault("database_path", Path(DefaultDBName))
	loader.SetConfigName(DefaultConfigName)
	loader.SetConfigType("yaml")
	loader.SetEnvPrefix(EnvPrefix)
	loader.AddConfigPath(Path(""))
	loader.AddConfigPath(".")
	loader.AutomaticEnv()

	return &loader
}

// Watch enables reloading of the config file, sending the new config on the changes channel.
func (cl *Loader) Watch() {
	if cl.changes == nil {
		return
	}

	cl.OnConfigChange(cl.onConfigChange)
	cl.WatchConfig()
}

func (cl *Loader) Path() string {
	return cl.ConfigFileUsed()
}

func (cl *Loader) onConfigChange(in fsnotify.Event) {
	if in.Op != fsnotify.Write && in.Op != fsnotify.Rename {
		return
	}

	slog.Debug("External config reload triggered")
	config, err := cl.Read()
	if err != nil {
		slog.Error("Error reading config", slog.String("error", err.Error()))

		return
	}

	cl.changes <- config
}

func (cl *Loader) Write(config Config) error {
	if config.SteamID.Valid() {
		cl.Set("steam_id", config.SteamID.String())
	} else {
		cl.Set("steam_id", "")
	}
	cl.Set("credential", config.Credential)
	cl.Set("vanity_url", config.VanityURL)
	cl.Set("api_base_url", config.APIBaseURL)
	cl.Set("update_freq_ms", config.UpdateFreqMs)
	cl.Set("log_level", config.LogLevel)
	cl.Set("log_file", config.LogFile)
	cl.Set("http_listen_address", config.HTTPListenAddress)
	cl.Set("database_path", config.DatabasePath)

	if err := cl.WriteConfig(); err != nil {
		return errors.Join(err, errConfigWrite)
	}

	return nil
}

func (cl *Loader) Read() (Config, error) {
	if err := cl.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return Config{}, errors.Join(err, errConfigRead)
		}
	}

	var config Config
	if err := cl.Unmarshal(&config); err != nil {
		return Config{}, errors.Join(err, errConfigRead)
	}

	config.Credential = steamweb.UnwrapEnvelope(strings.TrimSpace(config.Credential))

	if config.SteamIDString != "" {
		sid := steamid.New(config.SteamIDString)
		if !sid.Valid() {
			return Config{}, errConfigRead
		}
		config.SteamID = sid
	}

	return config, nil
}
