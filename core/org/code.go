package org

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
)

const codePrefixLen = 3

var (
	rnd   = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMu sync.Mutex

	// IntnFunc picks the numeric suffix of a join code. mockable
	IntnFunc = func(n int) int {
		rndMu.Lock()
		defer rndMu.Unlock()
		return rnd.Intn(n)
	}
)

// MakeCode derives a join code from the organization name:
// its first 3 letters upper-cased followed by a number in [0, 1000).
func MakeCode(name string) string {
	prefix := make([]rune, 0, codePrefixLen)
	for _, r := range name {
		if len(prefix) == codePrefixLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix = append(prefix, unicode.ToUpper(r))
		}
	}
	return fmt.Sprintf("%s%d", strings.TrimSpace(string(prefix)), IntnFunc(1000))
}
