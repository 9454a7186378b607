package pkg

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// Mode returns the runtime mode from the HALM_MODE env var. Anything other
// than "release" is treated as debug.
func Mode() string {
	if os.Getenv(EnvMode) == ModeRelease {
		return ModeRelease
	}
	return ModeDebug
}

// InitLogger initializes the global Logger based on the current mode (release vs. debug).
func InitLogger() {
	var config zap.Config

	if Mode() == ModeRelease {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := config.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}

	Logger = logger
}
