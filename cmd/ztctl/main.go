package main

import "github.com/davidleathers/zero-trust-access-engine/internal/cli"

func main() {
	cli.Execute()
}
