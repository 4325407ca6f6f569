// stubd CLI - Command-line interface for the stubd stub server
package main

import "github.com/getmockd/stubd/pkg/cli"

func main() {
	cli.Execute()
}
