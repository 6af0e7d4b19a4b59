package main

import "jpeg_swap/internal/cli"

func main() {
	cli.Execute()
}
