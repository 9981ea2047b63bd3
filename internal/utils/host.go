package utils

import (
	"os"
	"sync"
)

var hostname = sync.OnceValue(func() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
})

// GetHost returns the machine hostname, resolved once per process.
func GetHost() string {
	return hostname()
}
