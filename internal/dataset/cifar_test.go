package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeRecord builds one binary CIFAR-10 record.
func encodeRecord(label byte, fill byte) []byte {
	rec := make([]byte, recordBytes)
	rec[0] = label
	for i := 1; i < recordBytes; i++ {
		rec[i] = fill
	}
	return rec
}

func TestReadRecords(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeRecord(3, 0))
	buf.Write(encodeRecord(7, 255))

	samples, err := readRecords(&buf)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 3, samples[0].Label)
	assert.Equal(t, 7, samples[1].Label)
	assert.Len(t, samples[0].Raw, pixelBytes)
}

func TestReadRecordsTruncated(t *testing.T) {
	rec := encodeRecord(1, 0)
	_, err := readRecords(bytes.NewReader(rec[:100]))
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestReadRecordsBadLabel(t *testing.T) {
	_, err := readRecords(bytes.NewReader(encodeRecord(200, 0)))
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestPreprocessDeterministicAndScaled(t *testing.T) {
	raw := make([]byte, pixelBytes)
	for i := range raw {
		raw[i] = byte(i % 256)
	}
	im1, err := Preprocess(raw)
	require.NoError(t, err)
	im2, err := Preprocess(raw)
	require.NoError(t, err)

	assert.Equal(t, im1.Data, im2.Data)
	assert.Equal(t, NumChannels, im1.C)
	assert.Equal(t, ImageSize, im1.H)
	for _, v := range im1.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
	assert.Equal(t, float32(255)/255, im1.At(0, 7, 31))
}

func TestPreprocessRejectsCorruptInput(t *testing.T) {
	_, err := Preprocess(make([]byte, 10))
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestDatasetGetPropagatesReadError(t *testing.T) {
	ds := FromSamples([]Sample{{Raw: []byte{1, 2, 3}, Label: 0}})
	_, _, err := ds.Get(0)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestLoadTrainAndTest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range trainFiles {
		writeBatchFile(t, filepath.Join(dir, name), 2)
	}
	writeBatchFile(t, filepath.Join(dir, testFile), 3)

	train, err := LoadTrain(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, train.Len())

	test, err := LoadTest(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, test.Len())
}

func writeBatchFile(t *testing.T, path string, records int) {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < records; i++ {
		buf.Write(encodeRecord(byte(i%NumClasses), byte(i)))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
