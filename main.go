// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/helix-collective/adlgen/cmd/adlgen"

func main() {
	cmd.Execute()
}
