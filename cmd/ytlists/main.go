package main

import "ytlists/cli"

func main() {
	cli.Execute()
}
