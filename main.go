package main

import (
	"os"
	"runtime/debug"

	"chainlog/cmd"
	"chainlog/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("CHAINLOG CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
