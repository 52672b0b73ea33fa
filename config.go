// Copyright 2012 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/hanwen/go-sonyptp/ptp"
	"github.com/hanwen/go-sonyptp/sony"
)

// initConfig reads the config file and SONYPTP_ environment variables.
func initConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sonyptp")
	}

	viper.SetEnvPrefix("sonyptp")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}
}

func setDefaults() {
	viper.SetDefault("port", ptp.PTPIP_DefaultPort)
	viper.SetDefault("transport", "ip")
	viper.SetDefault("name", "go-sonyptp")
	viper.SetDefault("timeout", 10*time.Second)
	viper.SetDefault("capture.focus_timeout", time.Second)
	viper.SetDefault("capture.object_timeout", 35*time.Second)
	viper.SetDefault("capture.poll_interval", 50*time.Millisecond)
	viper.SetDefault("listen", "localhost:8080")
	viper.SetDefault("poll_interval", time.Second)
}

type config struct {
	Host      string
	Port      int
	Transport string
	Pattern   string
	Name      string
	GUID      uuid.UUID
	Timeout   time.Duration

	Session sony.Options

	RemoteEndpoint string
	Listen         string
	PollInterval   time.Duration

	DebugPTP, DebugUSB, DebugData, DebugEvent bool
}

func loadConfig() (*config, error) {
	c := &config{
		Host:      viper.GetString("host"),
		Port:      viper.GetInt("port"),
		Transport: viper.GetString("transport"),
		Pattern:   viper.GetString("usb.pattern"),
		Name:      viper.GetString("name"),
		Timeout:   viper.GetDuration("timeout"),
		Session: sony.Options{
			FocusTimeout:  viper.GetDuration("capture.focus_timeout"),
			ObjectTimeout: viper.GetDuration("capture.object_timeout"),
			PollInterval:  viper.GetDuration("capture.poll_interval"),
			DownloadDir:   viper.GetString("download_dir"),
			LiveViewURL:   viper.GetString("liveview_url"),
		},
		RemoteEndpoint: viper.GetString("remote_api.endpoint"),
		Listen:         viper.GetString("listen"),
		PollInterval:   viper.GetDuration("poll_interval"),
		DebugPTP:       viper.GetBool("debug.ptp"),
		DebugUSB:       viper.GetBool("debug.usb"),
		DebugData:      viper.GetBool("debug.data"),
		DebugEvent:     viper.GetBool("debug.event"),
	}

	switch c.Transport {
	case "ip":
		if c.Host == "" {
			return nil, fmt.Errorf("no camera host configured")
		}
	case "usb":
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport)
	}

	if g := viper.GetString("guid"); g != "" {
		guid, err := uuid.Parse(g)
		if err != nil {
			return nil, fmt.Errorf("guid: %w", err)
		}
		c.GUID = guid
	} else {
		c.GUID = uuid.New()
	}
	return c, nil
}
