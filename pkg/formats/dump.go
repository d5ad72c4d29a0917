// Binary mesh dump: simplified per-material meshes of every geometry.
package formats

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// DumpMagic opens every versioned dump file.
const DumpMagic = "MFLT"

// DumpVersion is the dump layout version written by WriteDump.
const DumpVersion uint16 = 1

// DumpFormat names the dump format in version errors.
const DumpFormat = "meshflat-dump"

// maxDumpElements bounds counts read from a dump.
const maxDumpElements = 1 << 26

// dumpChunk is the number of records read per step. Slices grow as records
// arrive, so a corrupt count on a short file costs at most one chunk.
const dumpChunk = 4096

// Dump errors.
var (
	ErrInvalidDumpMagic       = errors.New("invalid dump magic")
	ErrUnsupportedDumpVersion = errors.New("unsupported dump version")
	ErrDumpCountTooLarge      = errors.New("dump element count exceeds limit")
)

// DumpVertex is one exported vertex. Its layout matches the on-disk record.
type DumpVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	Color    [4]float32
}

// DumpMesh is the triangle list of one material section.
type DumpMesh struct {
	Vertices   []DumpVertex
	Indices    []uint32
	MaterialID uint64
}

// DumpGeometry groups the meshes exported from one geometry.
type DumpGeometry struct {
	ID     uint64
	Meshes []DumpMesh
}

// DumpOptions controls the written layout.
type DumpOptions struct {
	// Legacy writes the headerless layout without geometry ids.
	Legacy bool
}

// WriteDump writes geometries to w.
func WriteDump(w io.Writer, geometries []DumpGeometry, opts DumpOptions) error {
	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	if !opts.Legacy {
		if _, err := bw.WriteString(DumpMagic); err != nil {
			return err
		}
		if err := binary.Write(bw, le, DumpVersion); err != nil {
			return err
		}
	}
	if err := binary.Write(bw, le, uint32(len(geometries))); err != nil {
		return err
	}

	for _, g := range geometries {
		if !opts.Legacy {
			if err := binary.Write(bw, le, g.ID); err != nil {
				return err
			}
		}
		if err := binary.Write(bw, le, uint32(len(g.Meshes))); err != nil {
			return err
		}
		for _, m := range g.Meshes {
			if err := writeDumpMesh(bw, m); err != nil {
				return fmt.Errorf("geometry %d: %w", g.ID, err)
			}
		}
	}
	return bw.Flush()
}

func writeDumpMesh(w io.Writer, m DumpMesh) error {
	le := binary.LittleEndian
	if err := binary.Write(w, le, uint32(len(m.Vertices))); err != nil {
		return err
	}
	if err := binary.Write(w, le, m.Vertices); err != nil {
		return err
	}
	if err := binary.Write(w, le, uint32(len(m.Indices))); err != nil {
		return err
	}
	if err := binary.Write(w, le, m.Indices); err != nil {
		return err
	}
	return binary.Write(w, le, m.MaterialID)
}

// WriteDumpFile writes geometries to path.
func WriteDumpFile(path string, geometries []DumpGeometry, opts DumpOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	if err := WriteDump(f, geometries, opts); err != nil {
		f.Close()
		return fmt.Errorf("writing dump file: %w", err)
	}
	return f.Close()
}

// ReadDump reads a versioned dump.
func ReadDump(r io.Reader) ([]DumpGeometry, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(DumpMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != DumpMagic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDumpMagic, magic)
	}

	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != DumpVersion {
		return nil, &VersionError{
			Format:   DumpFormat,
			Expected: strconv.Itoa(int(DumpVersion)),
			Actual:   strconv.Itoa(int(version)),
			Err:      ErrUnsupportedDumpVersion,
		}
	}
	return readDumpBody(br, true)
}

// ReadLegacyDump reads the headerless layout. Geometry ids are not stored,
// so every returned geometry has ID 0.
func ReadLegacyDump(r io.Reader) ([]DumpGeometry, error) {
	return readDumpBody(bufio.NewReader(r), false)
}

// ReadDumpFile reads a versioned dump from path.
func ReadDumpFile(path string) ([]DumpGeometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading dump file: %w", err)
	}
	defer f.Close()
	return ReadDump(f)
}

func readDumpBody(r io.Reader, withIDs bool) ([]DumpGeometry, error) {
	geomCount, err := readDumpCount(r)
	if err != nil {
		return nil, fmt.Errorf("reading geometry count: %w", err)
	}

	geometries := make([]DumpGeometry, 0, min(geomCount, dumpChunk))
	for i := 0; i < geomCount; i++ {
		var g DumpGeometry
		if withIDs {
			if err := binary.Read(r, binary.LittleEndian, &g.ID); err != nil {
				return nil, fmt.Errorf("geometry %d: reading id: %w", i, err)
			}
		}
		meshCount, err := readDumpCount(r)
		if err != nil {
			return nil, fmt.Errorf("geometry %d: reading mesh count: %w", i, err)
		}
		g.Meshes = make([]DumpMesh, 0, min(meshCount, dumpChunk))
		for j := 0; j < meshCount; j++ {
			var m DumpMesh
			if err := readDumpMesh(r, &m); err != nil {
				return nil, fmt.Errorf("geometry %d mesh %d: %w", i, j, err)
			}
			g.Meshes = append(g.Meshes, m)
		}
		geometries = append(geometries, g)
	}
	return geometries, nil
}

func readDumpMesh(r io.Reader, m *DumpMesh) error {
	n, err := readDumpCount(r)
	if err != nil {
		return fmt.Errorf("reading vertex count: %w", err)
	}
	if m.Vertices, err = readDumpRecords[DumpVertex](r, n); err != nil {
		return fmt.Errorf("reading vertices: %w", err)
	}

	if n, err = readDumpCount(r); err != nil {
		return fmt.Errorf("reading index count: %w", err)
	}
	if m.Indices, err = readDumpRecords[uint32](r, n); err != nil {
		return fmt.Errorf("reading indices: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &m.MaterialID); err != nil {
		return fmt.Errorf("reading material id: %w", err)
	}
	return nil
}

// readDumpRecords reads n fixed-size records in chunks of dumpChunk.
func readDumpRecords[T any](r io.Reader, n int) ([]T, error) {
	out := make([]T, 0, min(n, dumpChunk))
	chunk := make([]T, min(n, dumpChunk))
	for len(out) < n {
		step := chunk[:min(n-len(out), dumpChunk)]
		if err := binary.Read(r, binary.LittleEndian, step); err != nil {
			return nil, err
		}
		out = append(out, step...)
	}
	return out, nil
}

func readDumpCount(r io.Reader) (int, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	if n > maxDumpElements {
		return 0, fmt.Errorf("%w: %d", ErrDumpCountTooLarge, n)
	}
	return int(n), nil
}
