// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 工具名
const (
	Vendor  = "CAOHONGJU"
	Name    = "hevcmov"
	Version = "V1.0.0"
)

var globalC *config

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// DumpSamples 是否输出全部样本表
func DumpSamples() bool {
	if globalC == nil {
		return false
	}
	return globalC.DumpSamples
}

// DumpConfig 是否输出 hvcC 配置
func DumpConfig() bool {
	if globalC == nil {
		return false
	}
	return globalC.DumpConfig
}
