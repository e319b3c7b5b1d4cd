package badger

import (
	"encoding/binary"
	"math"
	"time"
)

// Key prefixes for different record types
const (
	productPrefix      = "prod:"
	analysisPrefix     = "anl:"
	analysisTimePrefix = "anlt:"
)

func makeProductKey(id string) []byte {
	return []byte(productPrefix + id)
}

func makeAnalysisKey(id string) []byte {
	return []byte(analysisPrefix + id)
}

// makeAnalysisTimeKey builds the history index key.
// Format: prefix + inverted big-endian timestamp + id, so a forward
// iteration yields the newest analyses first.
func makeAnalysisTimeKey(createdAt time.Time, id string) []byte {
	prefix := []byte(analysisTimePrefix)
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], math.MaxUint64-uint64(createdAt.UnixNano()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}
