package main

import (
	"predicta/cmd/cmd"
	"predicta/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
