// Package application 为命令行程序装配配置与日志。
package application

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv"
	zlog "github.com/lk2023060901/byteconv-go/pkg/log"
	"github.com/lk2023060901/byteconv-go/pkg/util/hardware"
	zviper "github.com/lk2023060901/byteconv-go/pkg/util/viper"
)

const (
	defaultConfigPath = "./config.yaml"
	envConfigPath     = "BYTECONV_CONFIG_FILE_PATH"
)

// Application 持有进程级的配置、编解码选项和按名称划分的 Logger。
type Application struct {
	name    string
	cfg     *zviper.Config
	codec   *byteconv.Config
	loggers map[string]*zlog.MLogger
	flags   *pflag.FlagSet
}

// New 创建一个 Application。name 用作命令行帮助中的程序名。
func New(name string) *Application {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("config", "", "path of the YAML/JSON config file")
	return &Application{name: name, flags: flags}
}

// Flags 返回程序的命令行参数集合，调用方可以在 Run 之前登记自己的参数。
func (a *Application) Flags() *pflag.FlagSet {
	return a.flags
}

// Run 解析 os.Args 并完成初始化。
//
// 配置文件路径的优先级（由低到高）：
//  1. 缺省：./config.yaml（不存在时使用空配置）
//  2. 环境变量：BYTECONV_CONFIG_FILE_PATH
//  3. 命令行：--config <path> 或 --config=<path>
func (a *Application) Run() error {
	return a.run(os.Args[1:])
}

func (a *Application) run(args []string) error {
	if err := a.flags.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	codec, err := byteconv.ConfigFromViper(cfg)
	if err != nil {
		return errors.Wrap(err, "load byteconv config")
	}
	a.codec = codec

	zlog.Info("application initialized",
		zap.String("name", a.name),
		zap.Int("cpus", hardware.GetCPUNum()),
		zap.Uint64("memory", hardware.GetMemoryCount()),
		zap.Any("byteconv", codec))
	return nil
}

// Config 返回已加载的配置。
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// CodecOptions 返回由配置文件 byteconv 节得到的编解码选项，extra 在其后生效。
func (a *Application) CodecOptions(extra ...byteconv.Option) []byteconv.Option {
	return append([]byteconv.Option{byteconv.WithConfig(a.codec)}, extra...)
}

// Logger 返回配置中 logging 节登记的同名 Logger，未登记时返回全局 Logger。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldComponent(name))
}

func (a *Application) loadConfig() (*zviper.Config, error) {
	path, explicit := defaultConfigPath, false
	if env := strings.TrimSpace(os.Getenv(envConfigPath)); env != "" {
		path, explicit = env, true
	}
	if flag, _ := a.flags.GetString("config"); flag != "" {
		path, explicit = flag, true
	}

	cfg := zviper.New(zviper.WithEnvPrefix(""))
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(path); err != nil {
		return nil, errors.Wrapf(err, "load config file %q", path)
	}
	return cfg, nil
}

// initGlobalLoggerFromEnv 按 BYTECONV_LOG_* 环境变量配置全局 Logger：
//
//   - BYTECONV_LOG_ENABLE：是否输出，缺省为 true。
//   - BYTECONV_LOG_LEVEL：日志级别，缺省为 info。
//   - BYTECONV_LOG_STDOUT：是否输出到标准输出，缺省为 true。
//   - BYTECONV_LOG_FILE_DIR / BYTECONV_LOG_FILE：日志文件目录与文件名，文件名为空时不写文件。
//   - BYTECONV_LOG_FORMAT：text 或 json，缺省为 text。
func (a *Application) initGlobalLoggerFromEnv() error {
	cfg := &zlog.Config{
		Level:               getenvDefault("BYTECONV_LOG_LEVEL", "info"),
		Format:              getenvDefault("BYTECONV_LOG_FORMAT", "text"),
		Stdout:              getenvBool("BYTECONV_LOG_STDOUT", true),
		DisableErrorVerbose: true,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("BYTECONV_LOG_FILE_DIR", ""),
			Filename: getenvDefault("BYTECONV_LOG_FILE", ""),
		},
	}
	if !getenvBool("BYTECONV_LOG_ENABLE", true) {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "init global logger from env")
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig 按配置中的 logging 节创建具名 Logger：
//
//	logging:
//	  stream:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: stream.log
func (a *Application) initModuleLoggersFromConfig() error {
	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return errors.Wrap(err, "parse logging config")
	}
	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		logger, _, err := zlog.InitLogger(&lc)
		if err != nil {
			return errors.Wrapf(err, "init logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldComponent(name))}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
