package main

import (
	"fmt"
	"github.com/skyggedans/ajax-relay-gateway/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Execute(fmt.Sprintf("%s|%s|%s", version, commit[:7], date))
}
