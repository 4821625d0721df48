package setup

import (
	"encoding/binary"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	cacheHeaderSize    = 16 + 16
	cacheHeaderVersion = 1
)

// CacheIdentity is the part of the physical device properties a pipeline
// cache blob is tied to.
type CacheIdentity struct {
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

// ValidCacheData reports whether data carries a version one header written
// by the device described by id.
func ValidCacheData(data []byte, id CacheIdentity) bool {
	if len(data) < cacheHeaderSize {
		return false
	}

	length := binary.LittleEndian.Uint32(data[0:])
	version := binary.LittleEndian.Uint32(data[4:])
	vendor := binary.LittleEndian.Uint32(data[8:])
	device := binary.LittleEndian.Uint32(data[12:])

	if length < cacheHeaderSize || int(length) > len(data) || version != cacheHeaderVersion {
		return false
	}
	if vendor != id.VendorID || device != id.DeviceID {
		return false
	}

	cacheUUID, err := uuid.FromBytes(data[16:32])
	return err == nil && cacheUUID == id.UUID
}

// loadCacheData returns the cache blob at path, or nil when there is none or
// it belongs to another device or driver.
func loadCacheData(path string, id CacheIdentity, logger *slog.Logger) []byte {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read pipeline cache", slog.String("path", path), slog.Any("error", err))
		}
		return nil
	}

	if !ValidCacheData(data, id) {
		logger.Info("discarding stale pipeline cache", slog.String("path", path))
		return nil
	}

	return data
}

func saveCacheData(path string, data []byte) error {
	if path == "" || len(data) == 0 {
		return nil
	}

	err := os.WriteFile(path, data, 0o644)
	return errors.Wrapf(err, "write pipeline cache %s", path)
}
