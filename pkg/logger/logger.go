// Package logger configures the global zap logger used across the service.
package logger

import (
	"go.uber.org/zap"
)

// Setup builds a zap logger and installs it as the global logger. In dev
// mode it uses the console encoder, otherwise production JSON.
func Setup(dev bool) (*zap.Logger, error) {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}
