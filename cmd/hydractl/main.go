package main

import (
	"github.com/pasqal-io/gohydrate/cmd/hydractl/cmd"
)

func main() {
	cmd.Execute()
}
