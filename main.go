package main

import "github.com/tupanlabs/zapgate/cmd"

func main() {
	cmd.Execute()
}
