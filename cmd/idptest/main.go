package main

import "github.com/lukaszraczylo/idptest/internal/cli"

func main() {
	cli.Execute()
}
