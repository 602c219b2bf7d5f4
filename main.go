package main

import "github.com/user/gosec-auditlog/cmd"

func main() {
	cmd.Execute()
}
