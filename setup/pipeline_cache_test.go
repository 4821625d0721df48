package setup

import (
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheBlob(length, version, vendor, device uint32, id uuid.UUID, payload int) []byte {
	data := make([]byte, cacheHeaderSize+payload)
	binary.LittleEndian.PutUint32(data[0:], length)
	binary.LittleEndian.PutUint32(data[4:], version)
	binary.LittleEndian.PutUint32(data[8:], vendor)
	binary.LittleEndian.PutUint32(data[12:], device)
	copy(data[16:], id[:])
	return data
}

func TestValidCacheData(t *testing.T) {
	id := CacheIdentity{VendorID: 0x10de, DeviceID: 0x2204, UUID: uuid.New()}

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"matching", cacheBlob(cacheHeaderSize, 1, id.VendorID, id.DeviceID, id.UUID, 64), true},
		{"too short", cacheBlob(cacheHeaderSize, 1, id.VendorID, id.DeviceID, id.UUID, 0)[:20], false},
		{"header length too small", cacheBlob(8, 1, id.VendorID, id.DeviceID, id.UUID, 0), false},
		{"header length past end", cacheBlob(cacheHeaderSize+1, 1, id.VendorID, id.DeviceID, id.UUID, 0), false},
		{"wrong version", cacheBlob(cacheHeaderSize, 2, id.VendorID, id.DeviceID, id.UUID, 0), false},
		{"other vendor", cacheBlob(cacheHeaderSize, 1, 0x1002, id.DeviceID, id.UUID, 0), false},
		{"other device", cacheBlob(cacheHeaderSize, 1, id.VendorID, 0x1, id.UUID, 0), false},
		{"other driver", cacheBlob(cacheHeaderSize, 1, id.VendorID, id.DeviceID, uuid.New(), 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCacheData(tt.data, id))
		})
	}
}

func TestLoadAndSaveCacheData(t *testing.T) {
	id := CacheIdentity{VendorID: 1, DeviceID: 2, UUID: uuid.New()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "pipeline.cache")

	assert.Nil(t, loadCacheData("", id, logger))
	assert.Nil(t, loadCacheData(path, id, logger), "missing file")

	blob := cacheBlob(cacheHeaderSize, 1, id.VendorID, id.DeviceID, id.UUID, 16)
	require.NoError(t, saveCacheData(path, blob))
	assert.Equal(t, blob, loadCacheData(path, id, logger))

	other := CacheIdentity{VendorID: 1, DeviceID: 2, UUID: uuid.New()}
	assert.Nil(t, loadCacheData(path, other, logger))

	require.NoError(t, saveCacheData("", blob))
	require.NoError(t, saveCacheData(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, blob, data, "empty data leaves the file alone")
}
