package aws

import (
	"fmt"
	"sync"
	"time"
)

var keyMu sync.Mutex
var lastKeyMilli int64

// NextKey builds an object key from a millisecond timestamp prefix and the
// original file name. The prefix is forced strictly increasing per process,
// so two uploads of the same name in the same millisecond still get
// distinct keys without any coordination step.
func NextKey(filename string) string {
	keyMu.Lock()
	defer keyMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastKeyMilli {
		now = lastKeyMilli + 1
	}
	lastKeyMilli = now

	return fmt.Sprintf("%d-%s", now, filename)
}
