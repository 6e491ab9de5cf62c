package main

import "github.com/iedon/zine-go/cmd"

func main() {
	cmd.Execute(cmd.Info{Version: SERVER_VERSION, Signature: SERVER_SIGNATURE})
}
