package main

import "facecrop-go/cmd"

func main() {
	cmd.Execute()
}
