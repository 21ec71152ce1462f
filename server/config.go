package server

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/extremecarpaccio/carpaccio/dispatch"
	"github.com/extremecarpaccio/carpaccio/events"
	"github.com/extremecarpaccio/carpaccio/feedback"
	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
)

const (
	defaultDbDirName       = "db"
	defaultDataDirname     = "data"
	defaultLogDirname      = "logs"
	defaultMaxLogFiles     = 3
	defaultMaxLogFileSize  = 10
	defaultRESTPort        = 3000
	defaultHistoryCache    = 16
	defaultTickInterval    = 5 * time.Second
	defaultWarmupTicks     = 10
	defaultInvalidRatio    = 0.1
	defaultShutdownTimeout = 10 * time.Second
)

// Config defines the configuration options of the game server.
type Config struct {
	Dir             string  `long:"dir"            description:"The base directory that contains the game's data, logs, configuration file, etc."`
	ConfigFile      string  `long:"configfile"     description:"Path to configuration file"                                                       short:"c"`
	DataDir         string  `long:"datadir"        description:"The directory to store the game's state within"                                   short:"b"`
	DbDir           string  `long:"dbdir"          description:"The directory to store DBs within"`
	LogDir          string  `long:"logdir"         description:"Directory to log output."`
	DebugLog        bool    `long:"debuglog"       description:"Enable debug logs"`
	JSONLog         bool    `long:"jsonlog"        description:"Whether to log in JSON format"`
	MaxLogFiles     int     `long:"maxlogfiles"    description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize  int     `long:"maxlogfilesize" description:"Maximum logfile size in MB"`
	RawRESTListener string  `long:"restlisten"     description:"The interface/port/socket to listen for HTTP connections"                         short:"w"`
	MetricsPort     *uint16 `long:"metrics-port"   description:"The port to expose metrics"`
	HistoryCache    int     `long:"history-cache"  description:"Number of sampled cash histories kept in memory"`

	CPUProfile string `long:"cpuprofile" description:"Write CPU profile to the specified file"`
	Profile    string `long:"profile"    description:"Enable HTTP profiling on given port -- must be between 1024 and 65535"`

	Game     GameConfig      `group:"Game"`
	Feedback feedback.Config `group:"Feedback" namespace:"feedback"`
	Events   EventsConfig    `group:"Events"`
}

type GameConfig struct {
	Interval        time.Duration `long:"interval"         description:"Delay between the end of a tick and the start of the next one"`
	WarmupTicks     uint          `long:"warmup-ticks"     description:"Number of first ticks asking simple text questions"`
	InvalidRatio    float64       `long:"invalid-ratio"    description:"Probability for an order to be malformed"`
	OfflinePenalty  float64       `long:"offline-penalty"  description:"Cash change of a seller that did not answer"`
	ErrorPenalty    float64       `long:"error-penalty"    description:"Cash change of a seller whose answer could not be processed"`
	DispatchTimeout time.Duration `long:"dispatch-timeout" description:"Time a seller has to answer a question"`
	QuestionPath    string        `long:"question-path"    description:"Path of the sellers' question endpoint"`
	Seed            *int64        `long:"seed"             description:"Seed of the questions, picked randomly on the first start if not set"`
}

// implement zap.ObjectMarshaler interface.
func (c GameConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddDuration("interval", c.Interval)
	enc.AddUint("warmup-ticks", c.WarmupTicks)
	enc.AddFloat64("invalid-ratio", c.InvalidRatio)
	enc.AddFloat64("offline-penalty", c.OfflinePenalty)
	enc.AddFloat64("error-penalty", c.ErrorPenalty)
	enc.AddDuration("dispatch-timeout", c.DispatchTimeout)
	enc.AddString("question-path", c.QuestionPath)
	return nil
}

type EventsConfig struct {
	FlushInterval time.Duration `long:"events-flush-interval" description:"Maximum delay before recorded events are written"`
	MaxBatchSize  int           `long:"events-batch"          description:"Maximum number of events written at once"`
	QueueSize     int           `long:"events-queue"          description:"Number of events waiting to be written before dropping new ones"`

	Publisher events.PublisherConfig `group:"AMQP"`
}

// implement zap.ObjectMarshaler interface.
func (c EventsConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddDuration("flush-interval", c.FlushInterval)
	enc.AddInt("batch", c.MaxBatchSize)
	enc.AddInt("queue", c.QueueSize)
	enc.AddBool("amqp", c.Publisher.URL != "")
	enc.AddString("amqp-exchange", c.Publisher.Exchange)
	return nil
}

// DefaultConfig returns a config with default hardcoded values.
func DefaultConfig() *Config {
	dir := "./carpaccio"
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		dir = filepath.Join(cacheDir, "carpaccio")
	}

	return &Config{
		Dir:             dir,
		DataDir:         filepath.Join(dir, defaultDataDirname),
		DbDir:           filepath.Join(dir, defaultDbDirName),
		LogDir:          filepath.Join(dir, defaultLogDirname),
		MaxLogFiles:     defaultMaxLogFiles,
		MaxLogFileSize:  defaultMaxLogFileSize,
		RawRESTListener: fmt.Sprintf("localhost:%d", defaultRESTPort),
		HistoryCache:    defaultHistoryCache,
		Game: GameConfig{
			Interval:        defaultTickInterval,
			WarmupTicks:     defaultWarmupTicks,
			InvalidRatio:    defaultInvalidRatio,
			OfflinePenalty:  game.DefaultOfflinePenalty,
			ErrorPenalty:    game.DefaultErrorPenalty,
			DispatchTimeout: dispatch.DefaultTimeout,
			QuestionPath:    dispatch.DefaultQuestionPath,
		},
		Feedback: feedback.DefaultConfig(),
		Events: EventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			MaxBatchSize:  events.DefaultMaxBatchSize,
			QueueSize:     events.DefaultQueueSize,
			Publisher:     events.DefaultPublisherConfig(),
		},
	}
}

// ParseFlags reads values from command line arguments.
func ParseFlags(preCfg *Config) (*Config, error) {
	return parseArgs(preCfg, os.Args[1:])
}

func parseArgs(preCfg *Config, args []string) (*Config, error) {
	if _, err := flags.NewParser(preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}
	return preCfg, nil
}

// ReadConfigFile reads config from an ini file.
// It uses the provided `cfg` as a base config and overrides it with the values
// from the config file.
func ReadConfigFile(cfg *Config) (*Config, error) {
	if cfg.ConfigFile == "" {
		return cfg, nil
	}
	logging.FromContext(context.Background()).Sugar().Debugf("reading config from %s", cfg.ConfigFile)
	if err := flags.IniParse(cfg.ConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from %v: %w", cfg.ConfigFile, err)
	}

	return cfg, nil
}

// SetupConfig expands paths and initializes filesystem.
func SetupConfig(cfg *Config) (*Config, error) {
	// If the base directory is not the default one, the directories that were
	// left to their default live within it.
	defaultCfg := DefaultConfig()
	if cfg.Dir != defaultCfg.Dir {
		if cfg.DataDir == defaultCfg.DataDir {
			cfg.DataDir = filepath.Join(cfg.Dir, defaultDataDirname)
		}
		if cfg.LogDir == defaultCfg.LogDir {
			cfg.LogDir = filepath.Join(cfg.Dir, defaultLogDirname)
		}
		if cfg.DbDir == defaultCfg.DbDir {
			cfg.DbDir = filepath.Join(cfg.Dir, defaultDbDirName)
		}
	}

	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create %v: %w", cfg.Dir, err)
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.DbDir = cleanAndExpandPath(cfg.DbDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	return cfg, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
