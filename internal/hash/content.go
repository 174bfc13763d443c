package hash

import (
	"hash/crc32"
	"strconv"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Content returns a cache key for a blob of source text: its CRC32
// (Castagnoli) checksum followed by its length.
func Content(data []byte) string {
	sum := crc32.Checksum(data, castagnoli)
	return strconv.FormatUint(uint64(sum), 16) + "-" + strconv.Itoa(len(data))
}
