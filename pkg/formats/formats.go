// Package formats provides loaders that build scene models from files and
// the binary mesh dump codec.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshflat/pkg/scene"
)

// ErrUnknownSceneFormat is returned for file extensions no loader handles.
var ErrUnknownSceneFormat = errors.New("unknown scene file format")

// VersionError reports a file whose format version this build cannot read.
type VersionError struct {
	Format   string
	Expected string
	Actual   string
	Err      error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s: file version %s, supported %s", e.Format, e.Actual, e.Expected)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

// LoadScene loads a scene file, picking the loader by extension.
func LoadScene(path string) (*scene.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseSceneFilePath(path)
	case ".gltf", ".glb":
		return LoadGLTF(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSceneFormat, path)
}
