package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Verbose switches to the development
// config with debug-level output.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
