package main

import "github.com/tessera-themes/tessera/cmd"

func main() {
	cmd.Execute()
}
