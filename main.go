package main

import "github.com/djcass44/cef-packager/cmd"

var version = "0.0.0-dev"

func main() {
	cmd.Execute(version)
}
