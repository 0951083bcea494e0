package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Vector file layout, all little-endian:
//
//	magic   [8]byte  "DRAGIDX1"
//	dim     uint32
//	rows    uint64
//	data    rows*dim float32
var vectorMagic = [8]byte{'D', 'R', 'A', 'G', 'I', 'D', 'X', '1'}

const (
	headerSize = 20

	// maxRows bounds allocations when reading a damaged header.
	maxRows = 1 << 32
)

func encodeVectors(w io.Writer, dim int, vectors [][]float32) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(vectorMagic[:]); err != nil {
		return err
	}
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(dim))
	binary.LittleEndian.PutUint64(header[4:12], uint64(len(vectors)))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	buf := make([]byte, dim*4)
	for _, v := range vectors {
		for i, f := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// decodeVectors reads a vector file holding wantDim-wide rows. size is the
// file length in bytes, or -1 when unknown; the header is checked against
// both before any row is allocated.
func decodeVectors(r io.Reader, size int64, wantDim int) ([][]float32, error) {
	br := bufio.NewReader(r)

	var magic [8]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrIndexCorrupt, err)
	}
	if magic != vectorMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrIndexCorrupt, magic[:])
	}

	var header [12]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrIndexCorrupt, err)
	}
	dim := binary.LittleEndian.Uint32(header[0:4])
	rows := binary.LittleEndian.Uint64(header[4:12])
	if dim == 0 || rows > maxRows {
		return nil, fmt.Errorf("%w: invalid header dim=%d rows=%d", ErrIndexCorrupt, dim, rows)
	}
	if uint64(dim) != uint64(wantDim) {
		return nil, fmt.Errorf("%w: file holds %d-dimensional vectors, index expects %d", ErrDimensionMismatch, dim, wantDim)
	}
	if want := headerSize + rows*uint64(dim)*4; size >= 0 && uint64(size) != want {
		return nil, fmt.Errorf("%w: header describes %d bytes, file has %d", ErrIndexCorrupt, want, size)
	}

	vectors := make([][]float32, 0, int(min(rows, 1<<16)))
	buf := make([]byte, dim*4)
	for n := uint64(0); n < rows; n++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrIndexCorrupt, n, err)
		}
		v := make([]float32, dim)
		for i := range v {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		vectors = append(vectors, v)
	}

	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after %d rows", ErrIndexCorrupt, rows)
	}
	return vectors, nil
}
