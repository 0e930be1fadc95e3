// Package logging provides the diagnostic logger. Logs go to a rotating
// file because the terminal belongs to the line editor.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.SugaredLogger
	level  = zap.NewAtomicLevel()

	nop = zap.NewNop().Sugar()
)

// Options controls Init.
type Options struct {
	App string

	// Dev selects console encoding, a -debug file name and a debug
	// default level.
	Dev bool

	// Level is a zap level name. Empty or unknown names use the mode
	// default.
	Level string

	// Dir holds the log file. Empty means the XDG state directory.
	Dir string
}

// FromEnv reads LNSH_ENV and LOG_LEVEL.
func FromEnv(app string) Options {
	env := strings.ToLower(os.Getenv("LNSH_ENV"))
	return Options{
		App:   app,
		Dev:   env == "dev" || env == "development",
		Level: os.Getenv("LOG_LEVEL"),
	}
}

// L returns the global logger, or a no-op logger before Init.
func L() *zap.SugaredLogger {
	if logger == nil {
		return nop
	}
	return logger
}

// Init installs the global logger and returns the log file path.
func Init(opts Options) string {
	level.SetLevel(initialLevel(opts))

	dir := opts.Dir
	if dir == "" {
		dir = stateDir(opts.App)
	}
	name := opts.App + ".log"
	if opts.Dev {
		name = opts.App + "-debug.log"
	}
	path := filepath.Join(dir, name)

	encCfg := zap.NewProductionEncoderConfig()
	newEncoder := zapcore.NewJSONEncoder
	if opts.Dev {
		encCfg = zap.NewDevelopmentEncoderConfig()
		newEncoder = zapcore.NewConsoleEncoder
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	})

	core := zapcore.NewCore(newEncoder(encCfg), sink, level)
	logger = zap.New(core, zap.AddCaller()).Sugar().With("pid", os.Getpid())
	logger.Infow("logger initialized", "path", path, "level", level.Level())
	return path
}

// SetLevel changes the level of the installed logger at runtime.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level reports the current level.
func Level() zapcore.Level {
	return level.Level()
}

// Sync flushes buffered entries.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

func initialLevel(opts Options) zapcore.Level {
	if opts.Level != "" {
		if l, err := zapcore.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			return l
		}
	}
	if opts.Dev {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// stateDir returns the first creatable of $XDG_STATE_HOME/<app>,
// ~/.local/state/<app> and $TMPDIR/<app>.
func stateDir(app string) string {
	var dirs []string
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, app))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "state", app))
	}
	dirs = append(dirs, filepath.Join(os.TempDir(), app))

	for _, dir := range dirs {
		if os.MkdirAll(dir, 0o755) == nil {
			return dir
		}
	}
	return os.TempDir()
}
