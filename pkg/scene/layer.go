package scene

import "fmt"

// MappingMode declares how finely an attribute layer varies over a mesh.
type MappingMode int

const (
	MappingNone            MappingMode = iota // No values
	MappingByControlPoint                     // One value per control point
	MappingByPolygonVertex                    // One value per face corner
	MappingByPolygon                          // One value per face
	MappingAllSame                            // One value for the whole mesh
)

// String returns the mapping mode name.
func (m MappingMode) String() string {
	switch m {
	case MappingNone:
		return "None"
	case MappingByControlPoint:
		return "ByControlPoint"
	case MappingByPolygonVertex:
		return "ByPolygonVertex"
	case MappingByPolygon:
		return "ByPolygon"
	case MappingAllSame:
		return "AllSame"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMappingMode parses a mapping mode name as written by String.
func ParseMappingMode(s string) (MappingMode, error) {
	switch s {
	case "None", "":
		return MappingNone, nil
	case "ByControlPoint":
		return MappingByControlPoint, nil
	case "ByPolygonVertex":
		return MappingByPolygonVertex, nil
	case "ByPolygon":
		return MappingByPolygon, nil
	case "AllSame":
		return MappingAllSame, nil
	}
	return MappingNone, fmt.Errorf("unknown mapping mode %q", s)
}

// ReferenceMode declares whether layer values are addressed directly or
// through the layer's index array.
type ReferenceMode int

const (
	ReferenceDirect        ReferenceMode = iota // Direct[key]
	ReferenceIndexToDirect                      // Direct[Index[key]]
)

// String returns the reference mode name.
func (r ReferenceMode) String() string {
	switch r {
	case ReferenceDirect:
		return "Direct"
	case ReferenceIndexToDirect:
		return "IndexToDirect"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// ParseReferenceMode parses a reference mode name as written by String.
func ParseReferenceMode(s string) (ReferenceMode, error) {
	switch s {
	case "Direct", "":
		return ReferenceDirect, nil
	case "IndexToDirect":
		return ReferenceIndexToDirect, nil
	}
	return ReferenceDirect, fmt.Errorf("unknown reference mode %q", s)
}

// Layer is one attribute channel of a mesh.
type Layer[T any] struct {
	Name      string
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []T
	Index     []int // Required for ReferenceIndexToDirect
}

// Accessor returns the value lookup for the layer's reference mode, chosen
// once so callers can apply it per corner without re-dispatching. Negative
// or out-of-range keys and indices report false. Unknown reference modes
// return nil.
func (l *Layer[T]) Accessor() func(key int) (T, bool) {
	values := l.Direct
	switch l.Reference {
	case ReferenceDirect:
		return func(key int) (T, bool) {
			if key < 0 || key >= len(values) {
				var zero T
				return zero, false
			}
			return values[key], true
		}
	case ReferenceIndexToDirect:
		index := l.Index
		return func(key int) (T, bool) {
			var zero T
			if key < 0 || key >= len(index) {
				return zero, false
			}
			i := index[key]
			if i < 0 || i >= len(values) {
				return zero, false
			}
			return values[i], true
		}
	}
	return nil
}

// UVLayer is a texture coordinate layer. UVIndex holds the per-corner UV key
// (one entry per polygon vertex); nil means the polygon vertex index is used.
type UVLayer struct {
	Layer[UV]
	UVIndex []int
}

// MaterialLayer maps faces to slots in the owning node's material list.
type MaterialLayer struct {
	Name    string
	Mapping MappingMode
	Index   []int
}
