// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/kustrace/kustrace/cmd/kustrace"

func main() {
	cmd.Execute()
}
