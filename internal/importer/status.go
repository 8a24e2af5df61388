package importer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Faultbox/mvkit/internal/tileset"
	"github.com/Faultbox/mvkit/pkg/tiled"
	"github.com/Faultbox/mvkit/pkg/xmltree"
)

// Status is the outcome of one import. Its value doubles as the CLI exit code.
type Status int

const (
	StatusOK Status = iota
	StatusFileNotFound
	StatusCantRead
	StatusParseError
	StatusInvalidData
	StatusUnsupportedOrientation
	StatusWriteFailed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFileNotFound:
		return "file not found"
	case StatusCantRead:
		return "can't read"
	case StatusParseError:
		return "parse error"
	case StatusInvalidData:
		return "invalid data"
	case StatusUnsupportedOrientation:
		return "unsupported orientation"
	case StatusWriteFailed:
		return "write failed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Import errors.
var (
	ErrUnsupportedOrientation = errors.New("unsupported map orientation")
	ErrCantRead               = errors.New("cannot read source")
	ErrWriteFailed            = errors.New("writing scene failed")
)

// Classify maps an import error onto its status. A nil error is StatusOK.
func Classify(err error) Status {
	var (
		parseErr  *xmltree.ParseError
		decodeErr *tiled.DecodeError
		pathErr   *fs.PathError
	)
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrWriteFailed):
		return StatusWriteFailed
	case errors.Is(err, ErrUnsupportedOrientation):
		return StatusUnsupportedOrientation
	case errors.Is(err, fs.ErrNotExist):
		return StatusFileNotFound
	case errors.Is(err, ErrCantRead), errors.As(err, &pathErr):
		return StatusCantRead
	case errors.As(err, &parseErr):
		return StatusParseError
	case errors.As(err, &decodeErr), isDataError(err):
		return StatusInvalidData
	default:
		return StatusFailed
	}
}

var dataErrors = []error{
	tiled.ErrMissingAttribute,
	tiled.ErrInvalidAttribute,
	tiled.ErrUnexpectedElement,
	tiled.ErrUnknownOrientation,
	tiled.ErrMissingTileSetSource,
	tiled.ErrInvalidCellData,
	tiled.ErrUnsupportedEncoding,
	tiled.ErrCellCountMismatch,
	tiled.ErrUnsupportedInfiniteMap,
	tileset.ErrInvalidFirstGID,
	tileset.ErrUnresolvedGID,
	tileset.ErrUnknownTileSet,
	tileset.ErrNoAtlasImage,
}

func isDataError(err error) bool {
	for _, target := range dataErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
