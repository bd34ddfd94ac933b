// Package fileid derives stable product IDs for catalog file entries.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
)

const prefix = "catalog:"

// ProductID returns a stable product ID for the entry identified by key in the
// catalog file at absolutePath. Re-importing the same entry yields the same ID.
func ProductID(absolutePath, key string) string {
	h := sha256.New()
	h.Write([]byte(filepath.Clean(absolutePath)))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return prefix + hex.EncodeToString(h.Sum(nil)[:16])
}

// EntryKey identifies a catalog entry: its SKU when set, otherwise its
// 1-based position in the file.
func EntryKey(sku string, position int) string {
	if sku = strings.TrimSpace(sku); sku != "" {
		return "sku:" + sku
	}
	return "row:" + strconv.Itoa(position)
}

// IsCatalogID reports whether id was produced by ProductID.
func IsCatalogID(id string) bool {
	return strings.HasPrefix(id, prefix)
}
