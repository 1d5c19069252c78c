package logger

import (
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

// Log 全局logrus实例。包加载时先给一个只打stdout的默认实例，
// 进程入口再调InitLogger换成带文件输出的正式配置
var Log = logrus.New()

// InitLogger 初始化全局Logger：JSON格式、stdout+文件双写、按配置定级别
func InitLogger(logFile, level string) {
	Log = logrus.New()

	// JSON结构化日志，便于ELK、Loki等工具采集分析
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("无法打开日志文件: %v", err)
	}

	// 日志同时打到控制台(os.Stdout)和文件里
	mw := io.MultiWriter(os.Stdout, file)
	Log.SetOutput(mw)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Log.SetLevel(parsed)
}
