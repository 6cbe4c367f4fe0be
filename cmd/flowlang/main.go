package main

import "github.com/flowlang-dev/flowlang/pkg/cli"

func main() {
	cli.Execute()
}
