package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ELECTORAL_TEST_MODE") == "" {
			_ = os.Setenv("ELECTORAL_TEST_MODE", "1")
		}
	})
}
