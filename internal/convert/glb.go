// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	chunkJSON    = 0x4E4F534A // "JSON"
	glbHeaderLen = 12
)

// ValidateGLB checks that path holds a binary glTF 2.0 container: the
// magic, the version, a declared length equal to the file size, and a
// leading JSON chunk.
func ValidateGLB(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var hdr [glbHeaderLen + 8]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return fmt.Errorf("%s: truncated GLB header", path)
	}
	magic := binary.LittleEndian.Uint32(hdr[0:4])
	version := binary.LittleEndian.Uint32(hdr[4:8])
	length := binary.LittleEndian.Uint32(hdr[8:12])
	chunkType := binary.LittleEndian.Uint32(hdr[16:20])

	switch {
	case magic != glbMagic:
		return fmt.Errorf("%s: not a GLB file", path)
	case version != glbVersion:
		return fmt.Errorf("%s: unsupported glTF version %d", path, version)
	case int64(length) != info.Size():
		return fmt.Errorf("%s: declared length %d does not match file size %d", path, length, info.Size())
	case chunkType != chunkJSON:
		return fmt.Errorf("%s: first chunk is not JSON", path)
	}
	return nil
}
