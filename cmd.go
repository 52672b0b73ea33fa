// Copyright 2012 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/google/gousb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hanwen/go-sonyptp/log"
	"github.com/hanwen/go-sonyptp/ptp"
	"github.com/hanwen/go-sonyptp/remoteapi"
	"github.com/hanwen/go-sonyptp/sony"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "sonyptp",
		Short:         "Control Sony cameras over PTP/IP or USB",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cobra.OnInitialize(func() {
		setDefaults()
		initConfig(cfgFile)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sonyptp.yaml)")
	flags.String("host", "", "camera address")
	flags.Int("port", ptp.PTPIP_DefaultPort, "PTP/IP port")
	flags.String("transport", "ip", "transport: ip or usb")
	flags.String("usb-pattern", "", "regexp matching the USB device ID")
	flags.String("download-dir", "", "directory for captured files (default: temporary directory)")
	flags.Bool("debug-ptp", false, "log PTP requests and responses")
	flags.Bool("debug-usb", false, "log USB transfers")
	flags.Bool("debug-data", false, "hex dump packets")
	flags.Bool("debug-event", false, "log camera events and captures")

	for key, flag := range map[string]string{
		"host":         "host",
		"port":         "port",
		"transport":    "transport",
		"usb.pattern":  "usb-pattern",
		"download_dir": "download-dir",
		"debug.ptp":    "debug-ptp",
		"debug.usb":    "debug-usb",
		"debug.data":   "debug-data",
		"debug.event":  "debug-event",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		connectCmd(),
		eventCmd(),
		getCmd(),
		setCmd(),
		shootCmd(),
		zoomCmd(),
		serveCmd(),
		remoteCmd(),
	)
	return root
}

// camera is an open session plus what has to be released with it.
type camera struct {
	*sony.Session
	usb *gousb.Context
}

func (c *camera) Close() error {
	err := c.Session.Close()
	if c.usb != nil {
		c.usb.Close()
	}
	return err
}

func openCamera() (*camera, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	lc := log.PrepareChildren(log.Root, cfg.DebugPTP, cfg.DebugUSB, cfg.DebugData, cfg.DebugEvent)

	c := &camera{}
	var dev ptp.Device
	switch cfg.Transport {
	case "usb":
		c.usb = gousb.NewContext()
		d, err := ptp.SelectDeviceUSB(c.usb, cfg.Pattern, lc)
		if err != nil {
			c.usb.Close()
			return nil, err
		}
		dev = d
	default:
		d := ptp.NewDeviceIP(cfg.Host, cfg.Port, cfg.Name, cfg.GUID, lc)
		d.Timeout = cfg.Timeout
		dev = d
	}

	c.Session = sony.NewSession(sony.NewTransport(dev, lc), cfg.Session, lc)
	if err := c.Connect(); err != nil {
		if c.usb != nil {
			c.usb.Close()
		}
		return nil, err
	}
	return c, nil
}

func withCamera(fn func(c *camera, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := openCamera()
		if err != nil {
			return err
		}
		defer c.Close()
		return fn(c, args)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect and list the functions the camera offers",
		Args:  cobra.NoArgs,
		RunE: withCamera(func(c *camera, args []string) error {
			ev := c.LastEvent()
			if ev == nil {
				return errors.New("no event received")
			}
			fmt.Printf("shoot mode: %s\n", ev.ShootMode.Current)
			fns := append([]sony.Function(nil), ev.AvailableFunctions...)
			sort.Slice(fns, func(i, j int) bool { return fns[i] < fns[j] })
			for _, fn := range fns {
				fmt.Println(fn)
			}
			return nil
		}),
	}
}

func eventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event",
		Short: "Print the camera state as JSON",
		Args:  cobra.NoArgs,
		RunE: withCamera(func(c *camera, args []string) error {
			ev, err := c.Event()
			if err != nil {
				return err
			}
			return printJSON(ev)
		}),
	}
}

func perform(c *camera, fn sony.Function, payload interface{}) (interface{}, error) {
	ctx := context.Background()
	if err := c.MakeFunctionAvailable(ctx, fn); err != nil {
		log.Root.WithField("prefix", "main").Warningf("prepare %s: %v", fn, err)
	}
	return c.PerformFunction(ctx, fn, payload)
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get FUNCTION",
		Short: "Run a getter, eg. getISO",
		Args:  cobra.ExactArgs(1),
		RunE: withCamera(func(c *camera, args []string) error {
			v, err := perform(c, sony.Function(args[0]), nil)
			if err != nil {
				return err
			}
			return printJSON(v)
		}),
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set FUNCTION [JSON-PAYLOAD]",
		Short: `Run a function, eg. set setISO '{"kind":"native","value":400}'`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: withCamera(func(c *camera, args []string) error {
			fn := sony.Function(args[0])
			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}
			payload, err := sony.DecodePayload(fn, raw)
			if err != nil {
				return err
			}
			v, err := perform(c, fn, payload)
			if err != nil {
				return err
			}
			if v != nil {
				return printJSON(v)
			}
			return nil
		}),
	}
}

func shootCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "shoot",
		Short: "Take a picture and download it",
		Args:  cobra.NoArgs,
		RunE: withCamera(func(c *camera, args []string) error {
			v, err := perform(c, sony.TakePicture, nil)
			if err != nil {
				return err
			}
			fmt.Printf("object %#x\n", v)

			deadline := time.Now().Add(wait)
			for time.Now().Before(deadline) {
				ev, err := c.Event()
				if err != nil {
					return err
				}
				for _, urls := range ev.PostViewURLs {
					for _, u := range urls {
						fmt.Println(u)
					}
				}
				if len(ev.PostViewURLs) > 0 {
					return nil
				}
				time.Sleep(100 * time.Millisecond)
			}
			return errors.New("download did not finish")
		}),
	}
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the download")
	return cmd
}

func zoomCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:       "zoom in|out",
		Short:     "Zoom for a while",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{string(sony.ZoomIn), string(sony.ZoomOut)},
		RunE: withCamera(func(c *camera, args []string) error {
			if _, err := perform(c, sony.StartZooming, sony.ZoomDirection(args[0])); err != nil {
				return err
			}
			time.Sleep(duration)
			_, err := perform(c, sony.StopZooming, nil)
			return err
		}),
	}
	cmd.Flags().DurationVar(&duration, "duration", 500*time.Millisecond, "zoom duration")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve camera events and functions over websocket",
		Args:  cobra.NoArgs,
		RunE: withCamera(func(c *camera, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			es := sony.NewEventServer(c.Session, cfg.PollInterval, log.Root, ctx)
			srv := &http.Server{Addr: cfg.Listen, Handler: es.Handler()}
			go func() {
				<-ctx.Done()
				srv.Close()
			}()

			errc := make(chan error, 1)
			go func() {
				errc <- es.Run()
			}()

			log.Root.WithField("prefix", "main").Infof("listening on %s", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				stop()
				<-errc
				return err
			}
			return <-errc
		}),
	}
	cmd.Flags().String("listen", "localhost:8080", "listen address")
	cmd.Flags().Duration("poll-interval", time.Second, "event poll interval")
	viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	viper.BindPFlag("poll_interval", cmd.Flags().Lookup("poll-interval"))
	return cmd
}

func remoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remote",
		Short: "Enter record mode over the Remote API and list the available methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := viper.GetString("remote_api.endpoint")
			if endpoint == "" {
				return errors.New("remote_api.endpoint not configured")
			}
			lg := log.NewChildLogger(log.Root, "remoteapi", viper.GetBool("debug.ptp"))
			client := remoteapi.New(endpoint, viper.GetDuration("timeout"), lg)

			if err := client.EnterRecordMode(remoteapi.LegacyRecordModePolicy{}); err != nil {
				return err
			}
			apis, err := client.GetAvailableAPIList()
			if err != nil {
				return err
			}
			for _, a := range apis {
				fmt.Println(a)
			}
			return nil
		},
	}
}
