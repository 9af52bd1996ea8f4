package main

import (
	"github.com/framelink/framelink.go/pkg/cli/sh"
	"github.com/framelink/framelink.go/pkg/env/endpoint"

	_ "github.com/framelink/framelink.go/pkg/cli/cmds/proto"
)

//go-build: CGO_ENABLED=0

func init() {
	endpoint.SetupFlags()
}

func main() {
	sh.Main()
}
