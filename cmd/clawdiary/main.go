package main

import "github.com/0xbeekeeper/claw-diary/internal/cli"

func main() {
	cli.Execute()
}
