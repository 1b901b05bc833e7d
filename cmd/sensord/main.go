package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"
	_ "github.com/kidoman/embd/host/all"

	fx "github.com/robotalks/sensorlib.go/pkg/framework"
	"github.com/robotalks/sensorlib.go/pkg/station/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	env := env.NewConfig().MustNewEnv()
	if err := fx.NewRunner().HandleSignals().Go(env).Wait(); err != nil {
		glog.Fatal(err)
	}
}
