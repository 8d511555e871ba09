package ids

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ObserverPrefix = "O"
	SeekerPrefix   = "S"
)

func ObserverID(n uint64) string { return fmt.Sprintf("%s%04d", ObserverPrefix, n) }
func SeekerID(n uint64) string   { return fmt.Sprintf("%s%04d", SeekerPrefix, n) }

func MaxU64(a, b uint64) uint64 {
	if a >= b {
		return a
	}
	return b
}

func ParseUintAfterPrefix(prefix, id string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
