package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

var (
	errConfigWrite = errors.New("failed to write config file")
	errConfigRead  = errors.New("failed to read config file")
	errLoggerInit  = errors.New("failed to initialize logger")
	errLogLevel    = errors.New("unknown log level")
)

const (
	ConfigDirName      = "cs2-friends"
	DefaultConfigName  = "cs2-friends"
	DefaultDBName      = "cs2-friends.db"
	DefaultLogName     = "cs2-friends.log"
	EnvPrefix          = "cs2friends"
	DefaultHTTPTimeout = 15 * time.Second
)

type Config struct {
	// Credential is either a web api key or an access token. The JSON document returned by the
	// store token endpoint is also accepted and unwrapped.
	Credential    string          `mapstructure:"credential"`
	SteamID       steamid.SteamID `mapstructure:"-"`
	SteamIDString string          `mapstructure:"steam_id"`
	// VanityURL is used to find the users steam id when using a key and no steam_id is set.
	VanityURL         string `mapstructure:"vanity_url"`
	APIBaseURL        string `mapstructure:"api_base_url"`
	UpdateFreqMs      int    `mapstructure:"update_freq_ms"`
	LogLevel          string `mapstructure:"log_level"`
	LogFile           string `mapstructure:"log_file"`
	HTTPListenAddress string `mapstructure:"http_listen_address"`
	DatabasePath      string `mapstructure:"database_path"`
}

func (c Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateFreqMs) * time.Millisecond
}

// Path generates a path pointing to the filename under this apps defined $XDG_CONFIG_HOME.
func Path(name string) string {
	fullPath, errFullPath := xdg.ConfigFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		panic(errFullPath)
	}

	return fullPath
}

// ParseLevel converts a level name into a slog.Level. Trace is finer than debug and includes
// raw api responses.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return steamweb.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errLogLevel
	}
}

// NewLogger creates a text logger writing to w at the given level.
func NewLogger(writer io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.LevelKey {
				if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl == steamweb.LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			}

			return attr
		},
	}))
}

// LoggerInit sets up a logger for the configured level. When logPath is empty, stderr is used.
// The returned closer must be closed on exit.
func LoggerInit(logPath string, levelName string) (*slog.Logger, io.Closer, error) {
	level, errLevel := ParseLevel(levelName)
	if errLevel != nil {
		return nil, nil, errors.Join(errLevel, errLoggerInit)
	}

	if logPath == "" {
		return NewLogger(os.Stderr, level), io.NopCloser(os.Stderr), nil
	}

	logFile, errLogFile := os.Create(logPath)
	if errLogFile != nil {
		return nil, nil, errors.Join(errLogFile, errLoggerInit)
	}

	return NewLogger(logFile, level), logFile, nil
}
