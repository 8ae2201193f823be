package main

import "github.com/LeCodex/Br4nd-0n-V3-sub000/cmd"

func main() {
	cmd.Execute()
}
