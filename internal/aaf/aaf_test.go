package aaf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put32(buf []byte, off int, v uint32) { binary.BigEndian.PutUint32(buf[off:], v) }

// buildArchive lays out a minimal synthetic AAF: one WSYS chunk group
// (whose index id is overridden by its embedded wsys_id per §4.2) and
// one IBNK chunk group, terminated by the END chunk type.
func buildArchive(t *testing.T) []byte {
	t.Helper()
	const (
		wsysPayloadOff  = 44
		wsysPayloadSize = 16
		ibnkPayloadOff  = 60
		ibnkPayloadSize = 8
		total           = 68
	)

	buf := make([]byte, total)

	// header
	put32(buf, 0, ChunkWSYS)
	put32(buf, 4, wsysPayloadOff)
	put32(buf, 8, wsysPayloadSize)
	put32(buf, 12, 999) // index id, overridden by the embedded wsys_id
	put32(buf, 16, 0)   // end of WSYS group

	put32(buf, 20, ChunkIBNK)
	put32(buf, 24, ibnkPayloadOff)
	put32(buf, 28, ibnkPayloadSize)
	put32(buf, 32, 77)
	put32(buf, 36, 0) // end of IBNK group

	put32(buf, 40, ChunkEnd)

	// payloads
	copy(buf[wsysPayloadOff:], []byte("ABCD"))
	put32(buf, wsysPayloadOff+8, 555) // embedded wsys_id, after magic and file_size
	copy(buf[ibnkPayloadOff:], []byte("IBNKDATA"))

	require.Equal(t, total, ibnkPayloadOff+ibnkPayloadSize)
	return buf
}

func TestOpenBytes_IndexesChunksByID(t *testing.T) {
	a, err := OpenBytes(buildArchive(t))
	require.NoError(t, err)

	wsysBytes := a.WavesystemBytes(555)
	require.NotNil(t, wsysBytes, "embedded wsys_id (555) overrides the chunk-index id (999)")
	assert.Equal(t, "ABCD", string(wsysBytes[:4]))

	assert.Nil(t, a.WavesystemBytes(999), "the overridden index id is not reachable")
	assert.Nil(t, a.WavesystemBytes(1), "unknown id returns nil")

	ibnkBytes := a.BankBytes(77)
	require.NotNil(t, ibnkBytes)
	assert.Equal(t, "IBNKDATA", string(ibnkBytes))

	assert.Equal(t, []uint32{77}, a.BankIDs())
}

func TestOpenBytes_TruncatedArchive(t *testing.T) {
	_, err := OpenBytes([]byte{0, 0, 0, byte(ChunkWSYS)})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestOpenBytes_EmptyArchiveHasNoChunks(t *testing.T) {
	buf := make([]byte, 4)
	put32(buf, 0, ChunkEnd)
	a, err := OpenBytes(buf)
	require.NoError(t, err)
	assert.Nil(t, a.WavesystemBytes(1))
	assert.Empty(t, a.BankIDs())
}
