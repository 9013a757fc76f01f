package main

import "github.com/aweris/imgcache/cmd/imgcache/cmd"

func main() {
	cmd.Execute()
}
