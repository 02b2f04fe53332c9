package main

import (
	"os"

	poempigcmder "github.com/MikeNorman/poempig/cmd/poempig"
)

func main() {
	cmd := poempigcmder.NewPoempigCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
