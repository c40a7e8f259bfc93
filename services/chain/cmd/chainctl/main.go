package main

import "bingehouse/services/chain/internal/cli"

// version is injected by the linker via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
