package main

import "github.com/kmers-io/ksketch/cmd"

func main() {
	cmd.Execute()
}
