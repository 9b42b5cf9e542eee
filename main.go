package main

import "github.com/user/secmerge/cmd"

func main() {
	cmd.Execute()
}
