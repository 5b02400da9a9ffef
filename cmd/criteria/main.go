// Command criteria discovers Starlark test files below a directory
// (default "tests"), runs the suites they register and prints the results.
//
//	criteria [flags] [dir]
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
