package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/referee.go/pkg/config"
	fx "github.com/robotalks/referee.go/pkg/framework"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := config.Default()
	if err != nil {
		glog.Exitln(err)
	}
	env := conf.MustNewEnv()
	glog.Infof("referee %s started, sim=%v", conf.Node, conf.Sim.Enabled)
	if err := env.Go(fx.NewRunner().HandleSignals(), true).Wait(); err != nil {
		glog.Exitln(err)
	}
}
