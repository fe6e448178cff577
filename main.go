package main

import (
	"github.com/sidkik/portable-launcher/cmd"
	"github.com/sidkik/portable-launcher/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
