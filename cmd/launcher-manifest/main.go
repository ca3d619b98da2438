package main

import "github.com/oshokin/launcher-manifest/cmd/launcher-manifest/cmd"

func main() {
	cmd.Execute()
}
