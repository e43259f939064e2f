package main

import "github.com/utkarsh5026/tpool/internal/cli"

func main() {
	cli.Execute()
}
