package cache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// keyDomain separates cache keys from any other keyed hash of the same input.
var keyDomain = [32]byte{
	'f', 'l', 'e', 'e', 't', '-', 'c', 'a', 'r', 'r', 'i', 'e', 'r', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't', '.', 'k', 'e', 'y', '.', 'v', '1',
}

// Key identifies the snapshot of one format version over an ordered list
// of journal roots. Reordering the roots yields a different key.
func Key(version int, roots []string) string {
	hasher, err := blake3.NewKeyed(keyDomain[:])
	if err != nil {
		panic("cache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(version))
	_, _ = hasher.Write(scratch[:])
	for _, root := range roots {
		binary.BigEndian.PutUint64(scratch[:], uint64(len(root)))
		_, _ = hasher.Write(scratch[:])
		_, _ = hasher.Write([]byte(root))
	}
	return hex.EncodeToString(hasher.Sum(nil)[:16])
}

func FileName(version int, roots []string) string {
	return fmt.Sprintf("snapshot_v%d_%s.cbor.zst", version, Key(version, roots))
}
