package main

import (
	"github.com/ltessmer/credd/cmd"
)

func main() {
	cmd.Execute()
}
