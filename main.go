package main

import "ringsync/cmd"

func main() {
	cmd.Execute()
}
