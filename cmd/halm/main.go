package main

import "github.com/nimeshabuddhika/helix-alm-go/internal/cli"

func main() {
	cli.Main()
}
