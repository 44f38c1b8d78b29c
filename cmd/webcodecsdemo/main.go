// Package main is the entry point for webcodecsdemo.
//
// webcodecsdemo is a thin CLI over the webcodecs-core library packages:
// it probes static codec support and drives an encoder or decoder
// pipeline end-to-end on raw input files for manual smoke-testing. All
// behavior lives in internal/pipeline, internal/engine and
// internal/config; this binary only wires flags to those calls.
package main

import (
	"os"

	"github.com/webcodecs-go/webcodecs-core/cmd/webcodecsdemo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
