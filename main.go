package main

import "lifesaver/egress/cmd"

func main() {
	cmd.Execute()
}
