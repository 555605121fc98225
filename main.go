package main

import "venue-client/cmd"

func main() {
	cmd.Execute()
}
