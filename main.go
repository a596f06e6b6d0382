package main

import "github.com/ignitionstack/polytree/cmd"

func main() {
	cmd.Execute()
}
