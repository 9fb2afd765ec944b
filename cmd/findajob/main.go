package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/smaltravel/findajob/internal/common"
	"github.com/smaltravel/findajob/internal/httpapi"
	"github.com/smaltravel/findajob/internal/pipeline"
	badgerstore "github.com/smaltravel/findajob/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverPortP  = flag.Int("p", 0, "Server port (shorthand, overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("findajob version %s\n", common.GetVersion())
		os.Exit(0)
	}

	finalPort := *serverPort
	if *serverPortP != 0 {
		finalPort = *serverPortP
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("findajob.toml"); err == nil {
			configFiles = append(configFiles, "findajob.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, finalPort, *serverHost)

	logger := buildLogger(config)
	common.InitLogger(logger)
	common.PrintBanner(config, logger)

	logger.Info().
		Strs("config_files", configFiles).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("application configuration loaded")

	db, err := badgerstore.NewDB(logger, config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open run store")
	}
	defer db.Close()

	runStorage := badgerstore.NewRunStorage(db, logger)
	store := pipeline.NewStore(runStorage)

	broker, err := pipeline.NewRedisBroker(config.Queue.BrokerURL, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to queue broker")
	}
	defer broker.Close()

	runtime := pipeline.NewRuntime(config, store, broker, logger)

	sweeper := pipeline.NewRetentionSweeper(runStorage, config.Storage.Badger.RunRetention, config.Storage.Badger.RetentionSweep, logger)
	sweeper.Start()
	defer sweeper.Stop()

	runtimeCtx, cancelRuntime := context.WithCancel(context.Background())
	defer cancelRuntime()
	runtime.Start(runtimeCtx)

	srv := httpapi.New(config, runtime, logger)

	common.SafeGo(logger, "httpServer", func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	})

	time.Sleep(100 * time.Millisecond)
	logger.Info().
		Str("url", config.ServerURL()).
		Msg("server ready - press ctrl+c to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("interrupt signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

// buildLogger assembles the console/file/memory writer chain from
// config.Logging, following the same output-gating rules as the
// teacher's startup sequence.
func buildLogger(config *common.Config) arbor.ILogger {
	logger := arbor.NewLogger()

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		if output == "file" {
			hasFileOutput = true
		}
		if output == "stdout" || output == "console" {
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		execPath, err := os.Executable()
		if err != nil {
			logger = logger.WithConsoleWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeConsole,
				TimeFormat:       config.Logging.TimeFormat,
				TextOutput:       true,
				DisableTimestamp: false,
			})
			logger.Warn().Err(err).Msg("failed to get executable path, skipping file logging")
		} else {
			logsDir := filepath.Join(filepath.Dir(execPath), "logs")
			if err := os.MkdirAll(logsDir, 0755); err != nil {
				logger.Warn().Err(err).Str("logs_dir", logsDir).Msg("failed to create logs directory")
			} else {
				logger = logger.WithFileWriter(models.WriterConfiguration{
					Type:             models.LogWriterTypeFile,
					FileName:         filepath.Join(logsDir, "findajob.log"),
					TimeFormat:       config.Logging.TimeFormat,
					MaxSize:          100 * 1024 * 1024,
					MaxBackups:       3,
					TextOutput:       true,
					DisableTimestamp: false,
				})
			}
		}
	}

	if hasStdoutOutput || !hasFileOutput {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       config.Logging.TimeFormat,
			TextOutput:       true,
			DisableTimestamp: false,
		})
	}

	logger = logger.WithMemoryWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeMemory,
		TimeFormat:       config.Logging.TimeFormat,
		TextOutput:       true,
		DisableTimestamp: false,
	})

	return logger.WithLevelFromString(config.Logging.Level)
}
