package main

import "github.com/joyxu/frameretrace/build-tools/cmd"

func main() {
	cmd.Execute()
}
