package main

import "github.com/tx-grouper/cmd/txgroup/cmd"

func main() {
	cmd.Execute()
}
