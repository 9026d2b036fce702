package main

import "github.com/netresearch/org-watch/cmd"

func main() {
	cmd.Execute()
}
