package main

import "github.com/firstperson-network/go-dtg-credentials/cmd/dtg-credential/cmd"

func main() {
	cmd.Execute()
}
