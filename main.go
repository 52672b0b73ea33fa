// Copyright 2012 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/hanwen/go-sonyptp/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Root.WithField("prefix", "main").Error(err)
		os.Exit(1)
	}
}
