// Package main provides the harvester command-line tool.
package main

import "xkcdharvest/cmd/harvester/cmd"

func main() {
	cmd.Execute()
}
