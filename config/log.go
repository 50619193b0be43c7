// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"

	"github.com/cnotch/xlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 输出的最低日志级别
	Level xlog.Level `json:"level"`

	// ToFile 是否同时将日志写入文件
	ToFile bool `json:"tofile"`

	// Filename 日志文件名称
	Filename string `json:"filename"`

	// MaxSize 单个日志文件的最大尺寸（兆）
	MaxSize int `json:"maxsize"`

	// MaxDays 旧日志保存天数
	MaxDays int `json:"maxdays"`
}

func (c *LogConfig) initFlags() {
	flag.Var(&c.Level, "log-level",
		"Set the log level to output")
	flag.BoolVar(&c.ToFile, "log-tofile", false,
		"Determines if logs should also be saved to file")
	flag.StringVar(&c.Filename, "log-filename",
		"./logs/"+Name+".log", "Set the file to write logs to")
	flag.IntVar(&c.MaxSize, "log-maxsize", 10,
		"Set the maximum size in megabytes of the log file before it gets rotated")
	flag.IntVar(&c.MaxDays, "log-maxdays", 7,
		"Set the maximum days of old log files to retain")
}

// 初始化根日志：控制台输出，可选地同时写入滚动的 JSON 日志文件
func (c *LogConfig) initLogger() {
	console := xlog.NewCore(
		xlog.NewConsoleEncoder(xlog.LstdFlags),
		xlog.Lock(os.Stderr), c.Level)

	if !c.ToFile {
		xlog.ReplaceGlobal(xlog.New(console))
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:  c.Filename,
		MaxSize:   c.MaxSize,
		MaxAge:    c.MaxDays,
		LocalTime: true,
	}
	xlog.ReplaceGlobal(xlog.New(xlog.NewTee(console,
		xlog.NewCore(xlog.NewJSONEncoder(xlog.LstdFlags), fileWriter, c.Level))))
}
