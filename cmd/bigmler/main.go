package main

import (
	"github.com/bigmler/bigmler/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
