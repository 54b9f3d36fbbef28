package voxfile

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	binary.Write(&b, binary.LittleEndian, int32(len(data)))
	binary.Write(&b, binary.LittleEndian, int32(0))
	b.Write(data)
	return b.Bytes()
}

func u32s(vals ...uint32) []byte {
	var b bytes.Buffer
	for _, v := range vals {
		binary.Write(&b, binary.LittleEndian, v)
	}
	return b.Bytes()
}

func sampleFile() []byte {
	var body bytes.Buffer
	body.Write(chunk("SIZE", u32s(2, 3, 4)))
	body.Write(chunk("XYZI", append(u32s(2), 0, 0, 0, 1, 1, 2, 3, 7)))
	palette := make([]byte, 256*4)
	palette[0], palette[1], palette[2], palette[3] = 10, 20, 30, 255
	body.Write(chunk("RGBA", palette))
	body.Write(chunk("nTRN", []byte{1, 2, 3}))

	var b bytes.Buffer
	b.WriteString(MagicNumber)
	binary.Write(&b, binary.LittleEndian, int32(150))
	b.WriteString("MAIN")
	binary.Write(&b, binary.LittleEndian, int32(0))
	binary.Write(&b, binary.LittleEndian, int32(body.Len()))
	b.Write(body.Bytes())
	return b.Bytes()
}

func TestDecode(t *testing.T) {
	vf, err := Decode(bytes.NewReader(sampleFile()))
	require.NoError(t, err)

	assert.Equal(t, 150, vf.Version)
	require.Len(t, vf.Models, 1)
	m := vf.Models[0]
	assert.Equal(t, [3]uint32{2, 3, 4}, [3]uint32{m.SizeX, m.SizeY, m.SizeZ})
	assert.Equal(t, []Voxel{{0, 0, 0, 1}, {1, 2, 3, 7}}, m.Voxels)
	assert.Equal(t, [4]byte{10, 20, 30, 255}, vf.Palette[1])
	assert.Equal(t, [4]byte{255, 255, 255, 255}, vf.Palette[0])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("PNG\x00\x00\x00\x00\x00")))
	assert.ErrorIs(t, err, ErrNotVox)

	data := sampleFile()
	_, err = Decode(bytes.NewReader(data[:len(data)-5]))
	assert.Error(t, err)
}

func TestDecodeXYZIOverflow(t *testing.T) {
	var b bytes.Buffer
	b.WriteString(MagicNumber)
	binary.Write(&b, binary.LittleEndian, int32(150))
	b.Write(chunk("SIZE", u32s(1, 1, 1)))
	b.Write(chunk("XYZI", append(u32s(5), 0, 0, 0, 1)))

	_, err := Decode(&b)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vox")
	require.NoError(t, os.WriteFile(path, sampleFile(), 0o644))

	vf, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, vf.Models[0].Voxels, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.vox"))
	assert.Error(t, err)
}
