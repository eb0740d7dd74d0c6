package main

import "github.com/nekihlep/water-norm/cli"

func main() {
	cli.Execute()
}
