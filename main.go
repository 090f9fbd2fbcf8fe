// Package main is the entry point for the covmut CLI.
package main

import "gooze.dev/pkg/covmut/cmd"

func main() {
	cmd.Execute()
}
