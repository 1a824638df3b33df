package iocache

import (
	"fmt"

	"github.com/huangsam/slick/schema"
)

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		fmt.Printf("Last Entry: %s\n", status.LastEntryTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintStoreStatus prints record store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Records: %d\n", status.TotalRecords)
	if status.TotalRecords > 0 {
		fmt.Printf("Total Area: %.2f km²\n", status.TotalArea)
		fmt.Printf("Last Import: %s\n", status.LastImportTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("Oldest Import: %s\n", status.OldestImport.Format("2006-01-02 15:04:05"))
	}
}
