// Command slick prepares oil spill observations for map rendering.
package main

import (
	"github.com/huangsam/slick/cmd"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}
}
