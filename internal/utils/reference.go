package utils

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	refMu   sync.Mutex
	refRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateReferenceID generates a human-shareable reference code for a
// submission: REF + millisecond timestamp + 5 random characters. Collision
// resistance comes from the timestamp plus random suffix; the database
// unique index is the final arbiter.
func GenerateReferenceID() string {
	suffix := make([]byte, 5)
	refMu.Lock()
	for i := range suffix {
		suffix[i] = referenceCharset[refRand.Intn(len(referenceCharset))]
	}
	refMu.Unlock()

	return fmt.Sprintf("REF%d%s", time.Now().UnixMilli(), string(suffix))
}
