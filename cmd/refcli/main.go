package main

import (
	"github.com/robotalks/referee.go/pkg/cli/sh"

	_ "github.com/robotalks/referee.go/pkg/cli/cmds/joystick"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
