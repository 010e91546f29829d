package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "SALESADMIN_TEST_MODE"

var (
	testModeMu     sync.RWMutex
	testModeLoaded bool
	testMode       bool
)

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}

// InTestMode reports whether binaries should skip runtime side effects such
// as dialing Redis or binding ports.
func InTestMode() bool {
	testModeMu.RLock()
	loaded, on := testModeLoaded, testMode
	testModeMu.RUnlock()
	if !loaded {
		RefreshTestMode()
		return InTestMode()
	}
	return on
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	testModeMu.Lock()
	defer testModeMu.Unlock()
	testMode = readTestMode()
	testModeLoaded = true
}
