package main

import "github.com/theirongolddev/carledger/cmd"

func main() {
	cmd.Execute()
}
