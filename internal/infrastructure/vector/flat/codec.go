package flat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Artifact layout: magic, format version, dimension, vector count, then
// count rows of dimension little-endian float32 values.
var artifactMagic = [4]byte{'R', 'Q', 'V', 'I'}

const artifactVersion uint32 = 1

func readArtifact(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, fmt.Errorf("read index header: %w", err)
	}
	if magic != artifactMagic {
		return 0, nil, fmt.Errorf("not a vector index artifact: bad magic %q", magic)
	}

	var version, dimension, count uint32
	for _, field := range []*uint32{&version, &dimension, &count} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return 0, nil, fmt.Errorf("read index header: %w", err)
		}
	}
	if version != artifactVersion {
		return 0, nil, fmt.Errorf("unsupported index version %d", version)
	}
	if dimension == 0 {
		return 0, nil, fmt.Errorf("index dimension is zero")
	}

	vectors := make([][]float32, 0, count)
	row := make([]byte, 4*dimension)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return 0, nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vec := make([]float32, dimension)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[4*j:]))
		}
		vectors = append(vectors, vec)
	}
	return int(dimension), vectors, nil
}

// Write persists the index as the on-disk artifact. Only the offline indexer
// calls this; the serving path never writes.
func (idx *Index) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index artifact: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(artifactMagic[:]); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	for _, field := range []uint32{artifactVersion, uint32(idx.dimension), uint32(len(idx.vectors))} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("write index header: %w", err)
		}
	}

	row := make([]byte, 4*idx.dimension)
	for i, vec := range idx.vectors {
		for j, v := range vec {
			binary.LittleEndian.PutUint32(row[4*j:], math.Float32bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("write vector %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index artifact: %w", err)
	}
	return f.Sync()
}
