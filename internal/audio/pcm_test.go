package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToInt16(t *testing.T) {
	data := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80}
	samples := BytesToInt16(data)

	require.Len(t, samples, 3)
	assert.Equal(t, int16(1), samples[0])
	assert.Equal(t, int16(-1), samples[1])
	assert.Equal(t, int16(-32768), samples[2])
}

func TestBytesToInt16_OddLengthPadsWithZero(t *testing.T) {
	samples := BytesToInt16([]byte{0x01, 0x00, 0x02})

	require.Len(t, samples, 2)
	assert.Equal(t, int16(1), samples[0])
	assert.Equal(t, int16(2), samples[1])
}

func TestInt16ToBytes_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}

	assert.Equal(t, samples, BytesToInt16(Int16ToBytes(samples)))
}

func TestDownmixStereo(t *testing.T) {
	stereo := []int16{100, 200, -100, 100, 32767, 32767}
	mono := DownmixStereo(stereo)

	require.Len(t, mono, 3)
	assert.Equal(t, int16(150), mono[0])
	assert.Equal(t, int16(0), mono[1])
	assert.Equal(t, int16(32767), mono[2])
}

func TestPCMToWAV_Header(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	wav := PCMToWAV(samples, 48000, 1)

	require.Len(t, wav, 44+len(samples)*2)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))  // PCM format
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))  // mono
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36])) // bits per sample
	assert.Equal(t, uint32(len(samples)*2), binary.LittleEndian.Uint32(wav[40:44]))

	// Sample payload follows the header in order
	assert.Equal(t, int16(1), int16(binary.LittleEndian.Uint16(wav[44:46])))
	assert.Equal(t, int16(4), int16(binary.LittleEndian.Uint16(wav[50:52])))
}

func TestPCMToWAV_StereoByteRate(t *testing.T) {
	wav := PCMToWAV([]int16{0, 0}, 48000, 2)

	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(48000*2*2), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(wav[32:34])) // block align
}
