package main

import (
	"errors"
	"fmt"
	"os"
	"production-simulator/internal/cli"
)

// main 是命令行工具的入口
func main() {
	root := cli.NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		// 数量错误的提示已经输出到 stdout
		if !errors.Is(err, cli.ErrQuantities) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
