//go:build windows

package platform

import (
	"encoding/binary"
	"syscall"

	"golang.org/x/sys/windows"

	"github.com/atomicfs/atomicfs/pkg/fserrors"
)

const (
	reparseTagSymlink    = 0xA000000C
	reparseTagMountPoint = 0xA0000003

	// reparseDataBufferHeaderSize is sizeof(DWORD ReparseTag) +
	// sizeof(USHORT ReparseDataLength) + sizeof(USHORT Reserved).
	reparseDataBufferHeaderSize = 8
	// symlinkFieldsSize is sizeof(USHORT)*4 + sizeof(ULONG) for the
	// symlink-specific SubstituteNameOffset/Length, PrintNameOffset/
	// Length, and Flags fields that precede PathBuffer.
	symlinkFieldsSize = 12
	// mountPointFieldsSize omits the Flags field mount points don't have.
	mountPointFieldsSize = 8
)

// ReadSymlink opens path with FILE_FLAG_OPEN_REPARSE_POINT and reads its
// target via FSCTL_GET_REPARSE_POINT, preferring PrintName and falling
// back to SubstituteName with its leading `\??\` prefix stripped.
func ReadSymlink(path string) (string, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", fserrors.OperationFailed("readSymlink", fserrors.PlatformCode{}, err.Error())
	}

	h, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OPEN_REPARSE_POINT|windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return "", fserrors.OperationFailed("readSymlink", fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}
	defer windows.CloseHandle(h)

	buf := make([]byte, windows.MAXIMUM_REPARSE_DATA_BUFFER_SIZE)
	var bytesReturned uint32
	err = windows.DeviceIoControl(h, windows.FSCTL_GET_REPARSE_POINT, nil, 0, &buf[0], uint32(len(buf)), &bytesReturned, nil)
	if err != nil {
		return "", fserrors.OperationFailed("readSymlink", fserrors.FromWindows(uint32(err.(syscall.Errno))), err.Error())
	}

	return parseReparseBuffer(buf[:bytesReturned])
}

// parseReparseBuffer decodes a REPARSE_DATA_BUFFER for symlinks and mount
// points. Every offset/length is validated as even (UTF-16 code units
// must be 2-byte aligned) and within the buffer bounds before use.
func parseReparseBuffer(buf []byte) (string, error) {
	if len(buf) < reparseDataBufferHeaderSize {
		return "", fserrors.OperationFailed("readSymlink", fserrors.PlatformCode{}, "reparse buffer shorter than its header")
	}
	tag := binary.LittleEndian.Uint32(buf[0:4])

	var fieldsSize int
	switch tag {
	case reparseTagSymlink:
		fieldsSize = symlinkFieldsSize
	case reparseTagMountPoint:
		fieldsSize = mountPointFieldsSize
	default:
		return "", fserrors.OperationFailed("readSymlink", fserrors.PlatformCode{}, "unsupported reparse tag")
	}

	fields := buf[reparseDataBufferHeaderSize:]
	if len(fields) < fieldsSize {
		return "", fserrors.OperationFailed("readSymlink", fserrors.PlatformCode{}, "reparse buffer too short for its tag's fixed fields")
	}

	substituteOffset := binary.LittleEndian.Uint16(fields[0:2])
	substituteLength := binary.LittleEndian.Uint16(fields[2:4])
	printOffset := binary.LittleEndian.Uint16(fields[4:6])
	printLength := binary.LittleEndian.Uint16(fields[6:8])

	pathBuffer := fields[fieldsSize:]

	if name, ok := extractUTF16(pathBuffer, printOffset, printLength); ok && name != "" {
		return name, nil
	}

	name, ok := extractUTF16(pathBuffer, substituteOffset, substituteLength)
	if !ok {
		return "", fserrors.OperationFailed("readSymlink", fserrors.PlatformCode{}, "reparse name offsets out of bounds")
	}
	const substitutePrefix = `\??\`
	if len(name) >= len(substitutePrefix) && name[:len(substitutePrefix)] == substitutePrefix {
		name = name[len(substitutePrefix):]
	}
	if name == "" {
		return "", fserrors.OperationFailed("readSymlink", fserrors.PlatformCode{}, "reparse buffer produced an empty target")
	}
	return name, nil
}

func extractUTF16(buf []byte, offset, length uint16) (string, bool) {
	if offset%2 != 0 || length%2 != 0 {
		return "", false
	}
	end := int(offset) + int(length)
	if int(offset) > len(buf) || end > len(buf) {
		return "", false
	}
	raw := buf[offset:end]
	u16 := make([]uint16, len(raw)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return windows.UTF16ToString(u16), true
}
