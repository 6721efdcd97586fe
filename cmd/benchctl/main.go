package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/dshot.go/pkg/bench"
	"github.com/robotalks/dshot.go/pkg/bench/sh"
)

func init() {
	bench.SetupFlags()
}

func main() {
	sh.Main()
}
