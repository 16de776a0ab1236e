package logger

import (
	"github.com/LavaJover/tourhub-moderation-service/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger from cfg and installs it as the zap global.
func New(env string, cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if env == "local" || env == "dev" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zcfg.EncoderConfig.LevelKey = "severity"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	if cfg.LogFormat == "json" || cfg.LogFormat == "console" {
		zcfg.Encoding = cfg.LogFormat
	}
	if cfg.LogOutput != "" {
		zcfg.OutputPaths = []string{cfg.LogOutput}
	}

	log, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	log = log.With(
		zap.String("env", env),
		zap.String("service_name", "moderation-service"),
	)
	zap.ReplaceGlobals(log)
	return log, nil
}
