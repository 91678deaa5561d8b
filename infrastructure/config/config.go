// Package config loads the command line configuration shared by the
// merkleclock tools.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/merkleclock/infrastructure/logger"
	"github.com/pkg/errors"
)

const (
	defaultHomeDirname    = ".merkleclock"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogLevel       = "info"
	defaultLogFilename    = "merkleclock.log"
	defaultErrLogFilename = "merkleclock_err.log"
)

var (
	// DefaultHomeDir is the default home directory for the merkleclock tools.
	DefaultHomeDir = defaultHomeDir()

	defaultDataDir = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir  = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// Flags defines the configuration options shared by the merkleclock tools.
type Flags struct {
	LogDir     string `long:"logdir" description:"Directory to log output"`
	NoLogFiles bool   `long:"nologfiles" description:"Log to stdout only"`
	LogLevel   string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	StoreFlags
}

// Config is the resolved configuration.
type Config struct {
	*Flags

	// LogFile and ErrLogFile are empty when NoLogFiles is set.
	LogFile    string
	ErrLogFile string
}

// DefaultFlags returns the flags populated with default values.
func DefaultFlags() *Flags {
	return &Flags{
		LogDir:     defaultLogDir,
		LogLevel:   defaultLogLevel,
		StoreFlags: defaultStoreFlags(),
	}
}

// ErrShowSubsystems is returned by LoadConfig when the log level is "show".
// The caller is expected to list logger.SupportedSubsystems and exit.
var ErrShowSubsystems = errors.New("show subsystems")

// LoadConfig parses args into the configuration, validates it and returns
// the arguments that were not consumed.
//
// Log levels are not applied here: subsystem loggers register when their
// packages initialize, so the caller applies Config.LogLevel once it has
// initialized the log backend.
func LoadConfig(appName string, args []string) (*Config, []string, error) {
	cfgFlags := DefaultFlags()
	parser := flags.NewParser(cfgFlags, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = appName
	parser.Usage = "[OPTIONS] COMMAND [COMMAND PARAMETERS]"

	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if cfgFlags.LogLevel == "show" {
		return nil, nil, ErrShowSubsystems
	}
	if err := validateLogLevel(cfgFlags.LogLevel); err != nil {
		return nil, nil, err
	}

	err = cfgFlags.ResolveStore(parser)
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	if !cfg.NoLogFiles {
		cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
		cfg.LogFile = filepath.Join(cfg.LogDir, appName, defaultLogFilename)
		cfg.ErrLogFile = filepath.Join(cfg.LogDir, appName, defaultErrLogFilename)
	}
	return cfg, remainingArgs, nil
}

// validateLogLevel checks the syntax of a log level specification. Subsystem
// names are checked by logger.ParseAndSetLogLevels once they are registered.
func validateLogLevel(logLevel string) error {
	for _, logLevelPair := range strings.Split(logLevel, ",") {
		levelString := logLevelPair
		if strings.Contains(logLevelPair, "=") {
			fields := strings.Split(logLevelPair, "=")
			if len(fields) != 2 || fields[0] == "" {
				return errors.Errorf("the specified log level contains an invalid "+
					"subsystem/level pair [%s]", logLevelPair)
			}
			levelString = fields[1]
		}
		if _, ok := logger.LevelFromString(levelString); !ok {
			return errors.Errorf("the specified log level [%s] is invalid", levelString)
		}
	}
	return nil
}

func defaultHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultHomeDirname
	}
	return filepath.Join(homeDir, defaultHomeDirname)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
