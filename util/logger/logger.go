// Package logger holds the process-wide logger used by the default error
// hook. Allocator code never logs on its own hot paths; only the advisory
// error-hook path (see tal.ErrorHook) and Context.Close's leak warning
// write here.
package logger

import (
	"os"

	logger "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var L = &logger.Logger{
	Out:   os.Stderr,
	Level: logger.WarnLevel,
	Formatter: &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	},
}
