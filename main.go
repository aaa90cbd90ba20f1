package main

import "github.com/BertoldVdb/spinor/cmd"

func main() {
	cmd.Execute()
}
