package main

import (
	"fmt"
	"os"

	"github.com/warpdl/bandwidth/cmd"
)

func main() {
	if err := cmd.Execute(os.Args); err != nil {
		fmt.Println("bwsched:", err.Error())
		os.Exit(1)
	}
}
