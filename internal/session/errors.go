package session

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Faultbox/meshflat/internal/flatten"
	"github.com/Faultbox/meshflat/pkg/formats"
	"github.com/Faultbox/meshflat/pkg/scene"
)

// Code classifies session failures.
type Code int

const (
	Unknown Code = iota
	InitFailed
	FileNotFound
	FormatError
	InvalidFileVersion
	GeometryNotFound
	MaterialNotFound
	AllocationFailed
	TriangulationFailed
)

// Sentinels matched by errors.Is against any *Error of the same code.
var (
	ErrUnknown             = errors.New("unknown error")
	ErrInitFailed          = errors.New("initialization failed")
	ErrFileNotFound        = errors.New("file not found")
	ErrFormat              = errors.New("file format error")
	ErrInvalidFileVersion  = errors.New("invalid file version")
	ErrGeometryNotFound    = errors.New("geometry not found")
	ErrMaterialNotFound    = errors.New("material not found")
	ErrAllocationFailed    = errors.New("allocation failed")
	ErrTriangulationFailed = errors.New("triangulation failed")
)

var codeErrors = [...]error{
	Unknown:             ErrUnknown,
	InitFailed:          ErrInitFailed,
	FileNotFound:        ErrFileNotFound,
	FormatError:         ErrFormat,
	InvalidFileVersion:  ErrInvalidFileVersion,
	GeometryNotFound:    ErrGeometryNotFound,
	MaterialNotFound:    ErrMaterialNotFound,
	AllocationFailed:    ErrAllocationFailed,
	TriangulationFailed: ErrTriangulationFailed,
}

// Err returns the sentinel for c.
func (c Code) Err() error {
	if c < 0 || int(c) >= len(codeErrors) {
		return ErrUnknown
	}
	return codeErrors[c]
}

func (c Code) String() string {
	return c.Err().Error()
}

// Error is returned by every Session operation.
type Error struct {
	Code Code
	Op   string
	Path string // Empty when no file is involved
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the code sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code.Err()}
	}
	return []error{e.Code.Err(), e.Err}
}

func newError(code Code, op, path string, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// classify wraps err with the code that best describes it. fallback is used
// when nothing more specific matches.
func classify(op, path string, err error, fallback Code) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	code := fallback
	var ve *formats.VersionError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = FileNotFound
	case errors.As(err, &ve):
		code = InvalidFileVersion
	case errors.Is(err, flatten.ErrTriangulationFailed):
		code = TriangulationFailed
	case errors.Is(err, formats.ErrDumpCountTooLarge):
		code = AllocationFailed
	case errors.Is(err, formats.ErrInvalidSceneFormat),
		errors.Is(err, formats.ErrUnknownSceneFormat),
		errors.Is(err, formats.ErrInvalidDumpMagic),
		errors.Is(err, scene.ErrMalformedMesh),
		errors.Is(err, scene.ErrDuplicateID):
		code = FormatError
	}
	return &Error{Code: code, Op: op, Path: path, Err: err}
}
