package main

import (
	"log"
	"os"

	_ "github.com/viant/scy/kms/blowfish"

	"github.com/tessai/mcp-bridge/bridge"
)

func main() {
	if err := bridge.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
