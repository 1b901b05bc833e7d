package main

import (
	_ "github.com/kidoman/embd/host/all"

	"github.com/robotalks/sensorlib.go/pkg/cli/sh"
	"github.com/robotalks/sensorlib.go/pkg/station/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
