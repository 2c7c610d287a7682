package main

import "github.com/minhopark/store-portal/cmd"

func main() {
	cmd.Execute()
}
