// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"io/ioutil"

	"github.com/cnotch/hevcmov/av/codec/hevc"
	"github.com/cnotch/hevcmov/config"
	"github.com/cnotch/xlog"
)

func main() {
	// 初始化配置
	config.InitConfig()

	if flag.NArg() == 0 {
		xlog.Warn("usage: hevcmov [flags] file.mov ...")
		return
	}

	for _, path := range flag.Args() {
		dump(path)
	}
}

func dump(path string) {
	logger := xlog.L().With(xlog.Fields(xlog.F("file", path)))

	data, err := ioutil.ReadFile(path)
	if err != nil {
		logger.Error(err.Error())
		return
	}

	d, err := hevc.Create(data)
	if err != nil {
		logger.Error(err.Error())
		return
	}

	logger.Infof("frame: %dx%d", d.FrameWidth(), d.FrameHeight())
	logger.Infof("samples: %d, max poc: %d, time scale: %d",
		d.NumberOfSamples(), d.MaxPictureOrderCount(), d.TimeScale())
	logger.Infof("alpha: premultiplied=%v", d.IsPremultipliedAlpha())

	if config.DumpConfig() {
		logger.Infof("hvcC: %x", d.HVCCConfiguration())
	}
	if config.DumpSamples() {
		for i, sample := range d.Samples() {
			logger.Infof("sample %4d: offset=%d size=%d duration=%d poc=%d",
				i, sample.Offset, sample.Size, sample.Duration, sample.PictureOrderCount)
		}
	}
}
