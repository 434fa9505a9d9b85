// Package main is the entry point for the qbase CLI.
package main

import (
	"seedfast/qbase/cmd"
)

func main() {
	cmd.Execute()
}
