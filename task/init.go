package task

import (
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var taskLog = log.New()

func init() {
	taskLog.Formatter = &prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// SetLogLevel sets the level of the task loggers, normally to the level picked by
// config.InitConf.
func SetLogLevel(level log.Level) {
	taskLog.SetLevel(level)
}
