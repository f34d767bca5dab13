package fserrors

import (
	"fmt"
	"time"
)

// ErrorCode identifies the specific failure variant within an operation
// family: open/create, parent verification, write/atomic, streaming, and
// the stat/metadata/permissions/ownership/timestamps families each have
// their own set of codes below, plus a generic "*Failed" tail for anything
// the platform layer's mapping table does not recognize.
type ErrorCode string

// Open/create family.
const (
	CodePathNotFound     ErrorCode = "PATH_NOT_FOUND"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeIsDirectory      ErrorCode = "IS_DIRECTORY"
	CodeTooManyOpenFiles ErrorCode = "TOO_MANY_OPEN_FILES"
	CodeOpenFailed       ErrorCode = "OPEN_FAILED"
)

// Parent verifier family.
const (
	CodeParentMissing             ErrorCode = "PARENT_MISSING"
	CodeParentNotDirectory        ErrorCode = "PARENT_NOT_DIRECTORY"
	CodeParentAccessDenied        ErrorCode = "PARENT_ACCESS_DENIED"
	CodeParentInvalidPath         ErrorCode = "PARENT_INVALID_PATH"
	CodeParentNetworkPathNotFound ErrorCode = "PARENT_NETWORK_PATH_NOT_FOUND"
	CodeParentStatFailed          ErrorCode = "PARENT_STAT_FAILED"
	CodeDirectoryCreationFailed   ErrorCode = "DIRECTORY_CREATION_FAILED"
)

// Write/atomic family.
const (
	CodeDestinationStatFailed          ErrorCode = "DESTINATION_STAT_FAILED"
	CodeTempFileCreationFailed         ErrorCode = "TEMP_FILE_CREATION_FAILED"
	CodeWriteFailed                    ErrorCode = "WRITE_FAILED"
	CodeSyncFailed                     ErrorCode = "SYNC_FAILED"
	CodeCloseFailed                    ErrorCode = "CLOSE_FAILED"
	CodeMetadataPreservationFailed     ErrorCode = "METADATA_PRESERVATION_FAILED"
	CodeRenameFailed                   ErrorCode = "RENAME_FAILED"
	CodeDestinationExists              ErrorCode = "DESTINATION_EXISTS"
	CodeDirectorySyncFailed            ErrorCode = "DIRECTORY_SYNC_FAILED"
	CodeDirectorySyncFailedAfterCommit ErrorCode = "DIRECTORY_SYNC_FAILED_AFTER_COMMIT"
	CodeRandomGenerationFailed         ErrorCode = "RANDOM_GENERATION_FAILED"
	CodeAlreadyClosed                  ErrorCode = "ALREADY_CLOSED"
)

// Streaming family.
const (
	CodeInvalidFillResult       ErrorCode = "INVALID_FILL_RESULT"
	CodeUserError               ErrorCode = "USER_ERROR"
	CodeDurabilityNotGuaranteed ErrorCode = "DURABILITY_NOT_GUARANTEED"
)

// Generic tail shared by stat/metadata/permissions/ownership/timestamps
// families and by any syscall site whose errno the mapping table does not
// recognize.
const CodeOperationFailed ErrorCode = "OPERATION_FAILED"

// FSError is the single concrete error type returned by atomicfs. Rather
// than one Go type per failure variant, the variant is carried in Code and
// the fields relevant to that variant are populated; fields irrelevant to
// a given Code are left zero.
type FSError struct {
	Code     ErrorCode
	Platform PlatformCode
	Message  string

	// Path-bearing variants.
	Path string
	From string // rename source
	To   string // rename destination

	// writeFailed.
	BytesWritten  int64
	BytesExpected int64

	// metadataPreservationFailed.
	Operation string

	// invalidFillResult.
	Produced int
	Capacity int

	// AfterCommit marks errors raised once phase >= renamedPublished: the
	// file is visible at the destination but durability is uncertain.
	AfterCommit bool

	Cause     error
	Timestamp time.Time
}

func (e *FSError) Error() string {
	base := string(e.Code)
	if e.Path != "" {
		base = fmt.Sprintf("%s: %s", base, e.Path)
	}
	if e.Message != "" {
		base = fmt.Sprintf("%s: %s", base, e.Message)
	}
	if !e.Platform.IsZero() {
		base = fmt.Sprintf("%s (%s)", base, e.Platform)
	}
	if e.AfterCommit {
		base += " [after-commit: file is published, durability uncertain]"
	}
	if e.Cause != nil {
		base = fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

// Unwrap exposes the underlying syscall/OS error, if any, for errors.Is/As.
func (e *FSError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same ErrorCode, so callers can
// write errors.Is(err, fserrors.DestinationExists("")) style checks, or
// more idiomatically compare via errors.As and inspect Code directly.
func (e *FSError) Is(target error) bool {
	t, ok := target.(*FSError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(code ErrorCode) *FSError {
	return &FSError{Code: code, Timestamp: time.Now()}
}

// Constructors, one per failure variant. Each fills in exactly the fields
// that variant carries.

func PathNotFound(path string) *FSError {
	e := newErr(CodePathNotFound)
	e.Path = path
	return e
}

func PermissionDenied(path string) *FSError {
	e := newErr(CodePermissionDenied)
	e.Path = path
	return e
}

func AlreadyExists(path string) *FSError {
	e := newErr(CodeAlreadyExists)
	e.Path = path
	return e
}

func IsDirectory(path string) *FSError {
	e := newErr(CodeIsDirectory)
	e.Path = path
	return e
}

func TooManyOpenFiles(path string) *FSError {
	e := newErr(CodeTooManyOpenFiles)
	e.Path = path
	return e
}

func OpenFailed(path string, code PlatformCode, message string) *FSError {
	e := newErr(CodeOpenFailed)
	e.Path, e.Platform, e.Message = path, code, message
	return e
}

func ParentMissing(path string) *FSError {
	e := newErr(CodeParentMissing)
	e.Path = path
	return e
}

func ParentNotDirectory(path string) *FSError {
	e := newErr(CodeParentNotDirectory)
	e.Path = path
	return e
}

func ParentAccessDenied(path string) *FSError {
	e := newErr(CodeParentAccessDenied)
	e.Path = path
	return e
}

func ParentInvalidPath(path string) *FSError {
	e := newErr(CodeParentInvalidPath)
	e.Path = path
	return e
}

func ParentNetworkPathNotFound(path string) *FSError {
	e := newErr(CodeParentNetworkPathNotFound)
	e.Path = path
	return e
}

func ParentStatFailed(path string, code PlatformCode, message string) *FSError {
	e := newErr(CodeParentStatFailed)
	e.Path, e.Platform, e.Message = path, code, message
	return e
}

func DirectoryCreationFailed(path string, code PlatformCode, cause error) *FSError {
	e := newErr(CodeDirectoryCreationFailed)
	e.Path, e.Platform, e.Cause = path, code, cause
	return e
}

func DestinationStatFailed(path string, code PlatformCode, message string) *FSError {
	e := newErr(CodeDestinationStatFailed)
	e.Path, e.Platform, e.Message = path, code, message
	return e
}

func TempFileCreationFailed(directory string, code PlatformCode, message string) *FSError {
	e := newErr(CodeTempFileCreationFailed)
	e.Path, e.Platform, e.Message = directory, code, message
	return e
}

func WriteFailed(bytesWritten, bytesExpected int64, code PlatformCode, message string) *FSError {
	e := newErr(CodeWriteFailed)
	e.BytesWritten, e.BytesExpected, e.Platform, e.Message = bytesWritten, bytesExpected, code, message
	return e
}

func SyncFailed(code PlatformCode, message string) *FSError {
	e := newErr(CodeSyncFailed)
	e.Platform, e.Message = code, message
	return e
}

func CloseFailed(code PlatformCode, message string) *FSError {
	e := newErr(CodeCloseFailed)
	e.Platform, e.Message = code, message
	return e
}

func MetadataPreservationFailed(operation string, code PlatformCode, message string) *FSError {
	e := newErr(CodeMetadataPreservationFailed)
	e.Operation, e.Platform, e.Message = operation, code, message
	return e
}

func RenameFailed(from, to string, code PlatformCode, message string) *FSError {
	e := newErr(CodeRenameFailed)
	e.From, e.To, e.Platform, e.Message = from, to, code, message
	return e
}

func DestinationExists(path string) *FSError {
	e := newErr(CodeDestinationExists)
	e.Path = path
	return e
}

func DirectorySyncFailed(path string, code PlatformCode, message string) *FSError {
	e := newErr(CodeDirectorySyncFailed)
	e.Path, e.Platform, e.Message = path, code, message
	return e
}

// DirectorySyncFailedAfterCommit reports a durability failure that happens
// after the file is already visible at its destination (phase >=
// renamedPublished). AfterCommit is always true for this constructor.
func DirectorySyncFailedAfterCommit(path string, code PlatformCode, message string) *FSError {
	e := newErr(CodeDirectorySyncFailedAfterCommit)
	e.Path, e.Platform, e.Message, e.AfterCommit = path, code, message, true
	return e
}

func RandomGenerationFailed(operation string, code PlatformCode, message string) *FSError {
	e := newErr(CodeRandomGenerationFailed)
	e.Operation, e.Platform, e.Message = operation, code, message
	return e
}

func AlreadyClosed() *FSError {
	return newErr(CodeAlreadyClosed)
}

func InvalidFillResult(produced, capacity int) *FSError {
	e := newErr(CodeInvalidFillResult)
	e.Produced, e.Capacity = produced, capacity
	return e
}

func UserError(message string, cause error) *FSError {
	e := newErr(CodeUserError)
	e.Message, e.Cause = message, cause
	return e
}

// DurabilityNotGuaranteed is raised when a caller cancels a streaming write
// after commit() has returned, i.e. after phase >= renamedPublished: the
// data is published but the caller's own cancellation means they can no
// longer be sure the durability sync they requested actually ran to
// completion from their point of view.
func DurabilityNotGuaranteed(path string) *FSError {
	e := newErr(CodeDurabilityNotGuaranteed)
	e.Path, e.AfterCommit = path, true
	return e
}

// OperationFailed is the generic tail used by the stat/metadata/
// permissions/ownership/timestamps families and any unmapped errno.
func OperationFailed(operation string, code PlatformCode, message string) *FSError {
	e := newErr(CodeOperationFailed)
	e.Operation, e.Platform, e.Message = operation, code, message
	return e
}

// IsAfterCommit reports whether err (or any *FSError in its chain) carries
// the afterCommit marker — i.e. whether automation should treat the
// destination as durably published despite the error.
func IsAfterCommit(err error) bool {
	var fsErr *FSError
	if as(err, &fsErr) {
		return fsErr.AfterCommit
	}
	return false
}

// IsRetryable reports whether err (or any *FSError in its chain) carries
// a platform code that IsTransient considers worth a caller-level retry
// with backoff. It never returns true for codes with no platform code
// attached (e.g. destinationExists, invalidFillResult) — those are
// permanent outcomes, not resource pressure.
func IsRetryable(err error) bool {
	var fsErr *FSError
	if as(err, &fsErr) {
		return fsErr.Platform.IsTransient()
	}
	return false
}

// PlatformCodeOf extracts the PlatformCode carried by err, if err (or any
// error in its chain) is an *FSError. Used to carry a lower-level
// syscall's real errno forward into a higher-level wrapping error instead
// of discarding it with a fresh zero-value PlatformCode.
func PlatformCodeOf(err error) PlatformCode {
	var fsErr *FSError
	if as(err, &fsErr) {
		return fsErr.Platform
	}
	return PlatformCode{}
}

// as is a tiny local shim so this file does not need to import errors
// just for this one helper: it walks err's Unwrap chain for an *FSError.
func as(err error, target **FSError) bool {
	for err != nil {
		if e, ok := err.(*FSError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
