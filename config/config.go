// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
)

// config 工具配置
type config struct {
	DumpSamples bool      `json:"dump_samples"` // 输出全部样本表
	DumpConfig  bool      `json:"dump_config"`  // 输出 hvcC 配置的十六进制
	Log         LogConfig `json:"log"`          // 日志配置
}

func (c *config) initFlags() {
	flag.BoolVar(&c.DumpSamples, "samples", false,
		"Determines if the full sample table should be printed")
	flag.BoolVar(&c.DumpConfig, "hvcc", false,
		"Determines if the hvcC configuration should be printed as hex")

	// 初始化日志配置
	c.Log.initFlags()
}
