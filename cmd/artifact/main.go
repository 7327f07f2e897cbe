package main

import "ocm.software/open-component-model/artifact/cli/cmd"

func main() {
	cmd.Execute()
}
