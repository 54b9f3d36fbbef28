// Package voxfile reads MagicaVoxel .vox models.
package voxfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const MagicNumber = "VOX "

var ErrNotVox = errors.New("voxfile: not a valid VOX file")

type Voxel struct {
	X, Y, Z, ColorIndex byte
}

// Model is one SIZE/XYZI pair. Coordinates are in MagicaVoxel's Z-up space.
type Model struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

type Palette [256][4]byte // RGBA colors

type File struct {
	Version int
	Models  []Model
	Palette Palette
}

func Load(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vf, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("voxfile: %s: %w", filename, err)
	}
	return vf, nil
}

// Decode parses a .vox stream. Chunks other than MAIN, SIZE, XYZI and RGBA are skipped.
func Decode(r io.Reader) (*File, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != MagicNumber {
		return nil, ErrNotVox
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}

	vf := &File{
		Version: int(version),
		Palette: defaultPalette(),
	}

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, err
		}
		if chunkSize < 0 || childrenSize < 0 {
			return nil, fmt.Errorf("chunk %q: negative size", chunkID[:])
		}

		chunkData := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, err
		}

		switch string(chunkID[:]) {
		case "MAIN":
			// children follow inline
		case "SIZE":
			if len(chunkData) < 12 {
				return nil, errors.New("SIZE chunk too small")
			}
			vf.Models = append(vf.Models, Model{
				SizeX: binary.LittleEndian.Uint32(chunkData[0:4]),
				SizeY: binary.LittleEndian.Uint32(chunkData[4:8]),
				SizeZ: binary.LittleEndian.Uint32(chunkData[8:12]),
			})
		case "XYZI":
			if len(vf.Models) == 0 {
				return nil, errors.New("XYZI chunk before SIZE")
			}
			if len(chunkData) < 4 {
				return nil, errors.New("XYZI chunk too small")
			}
			model := &vf.Models[len(vf.Models)-1]
			numVoxels := int(binary.LittleEndian.Uint32(chunkData[:4]))
			if 4+numVoxels*4 > len(chunkData) {
				return nil, errors.New("XYZI chunk data overflow")
			}
			model.Voxels = make([]Voxel, numVoxels)
			for i := range model.Voxels {
				offset := 4 + i*4
				model.Voxels[i] = Voxel{
					X:          chunkData[offset],
					Y:          chunkData[offset+1],
					Z:          chunkData[offset+2],
					ColorIndex: chunkData[offset+3],
				}
			}
		case "RGBA":
			for i := 0; i < 255 && i*4+3 < len(chunkData); i++ {
				offset := i * 4
				copy(vf.Palette[i+1][:], chunkData[offset:offset+4])
			}
		}
	}

	return vf, nil
}

func defaultPalette() Palette {
	var palette Palette
	for i := range palette {
		palette[i] = [4]uint8{255, 255, 255, 255}
	}
	return palette
}
