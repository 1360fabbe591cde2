// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package log provides the global and named loggers shared across the engine. A global logger, wrapping
// a zap logger, is initialized with a development config at startup and can be replaced by InitLoggers.
// Sub loggers keep their own configs so that subsystems can tune verbosity independently.
package log

import (
	stdlog "log"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalConfig defines the global logger configurations
type GlobalConfig struct {
	Zap                *zap.Config `json:"zap" yaml:"zap"`
	StderrRedirectFile *string     `json:"stderrRedirectFile" yaml:"stderrRedirectFile"`
	RedirectStdLog     bool        `json:"stdLogRedirect" yaml:"stdLogRedirect"`
	EcsIntegration     bool        `json:"ecsIntegration" yaml:"ecsIntegration"`
}

var (
	_globalCfg    GlobalConfig
	_logMu        sync.RWMutex
	_globalLogger *zap.Logger
	_subLoggers   map[string]*zap.Logger
)

func init() {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.Level.SetLevel(zap.InfoLevel)
	l, err := zapCfg.Build()
	if err != nil {
		stdlog.Panic("failed to initialize the default logger")
	}
	_globalCfg.Zap = &zapCfg
	_globalLogger = l
	_subLoggers = make(map[string]*zap.Logger)
}

// L wraps the global logger
func L() *zap.Logger {
	_logMu.RLock()
	defer _logMu.RUnlock()
	return _globalLogger
}

// S returns the sugared global logger
func S() *zap.SugaredLogger { return L().Sugar() }

// Logger returns the logger of the given name, or the global logger if no logger of that name is found
func Logger(name string) *zap.Logger {
	_logMu.RLock()
	defer _logMu.RUnlock()
	l, ok := _subLoggers[name]
	if !ok {
		return _globalLogger
	}
	return l
}

// InitLoggers initializes the global logger and the sub loggers
func InitLoggers(globalCfg GlobalConfig, subCfgs map[string]GlobalConfig) error {
	for name := range subCfgs {
		if _, exists := _subLoggers[name]; exists {
			return errors.Errorf("duplicate sub logger name: %s", name)
		}
	}
	logger, err := newLogger(globalCfg)
	if err != nil {
		return err
	}
	_logMu.Lock()
	_globalCfg = globalCfg
	_globalLogger = logger
	_logMu.Unlock()
	if globalCfg.RedirectStdLog {
		zap.RedirectStdLog(logger)
	}

	for name, cfg := range subCfgs {
		l, err := newLogger(cfg)
		if err != nil {
			return err
		}
		_logMu.Lock()
		_subLoggers[name] = l.Named(name)
		_logMu.Unlock()
	}
	return nil
}

func newLogger(cfg GlobalConfig) (*zap.Logger, error) {
	if cfg.Zap == nil {
		zapCfg := zap.NewProductionConfig()
		cfg.Zap = &zapCfg
	} else {
		cfg.Zap.EncoderConfig = zap.NewProductionEncoderConfig()
	}
	if cfg.EcsIntegration {
		cfg.Zap.EncoderConfig = ecszap.ECSCompatibleEncoderConfig(cfg.Zap.EncoderConfig)
	}
	if cfg.StderrRedirectFile != nil {
		stderrF, err := os.OpenFile(*cfg.StderrRedirectFile, os.O_WRONLY|os.O_CREATE|os.O_SYNC|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		if err := redirectStderr(stderrF); err != nil {
			return nil, err
		}
	}
	logger, err := cfg.Zap.Build()
	if err != nil {
		return nil, err
	}
	if cfg.EcsIntegration {
		logger = logger.With(zap.String("ecs.version", "1.6.0"))
	}
	return logger, nil
}
