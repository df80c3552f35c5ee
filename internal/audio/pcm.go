package audio

import (
	"bytes"
	"encoding/binary"
)

// BytesToInt16 converts a byte slice to int16 samples (little-endian)
func BytesToInt16(data []byte) []int16 {
	if len(data)%2 != 0 {
		// Odd number of bytes, pad with zero
		data = append(data, 0)
	}

	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : (i+1)*2]))
	}

	return samples
}

// Int16ToBytes converts int16 samples to a little-endian byte slice
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:(i+1)*2], uint16(s))
	}
	return data
}

// DownmixStereo averages interleaved stereo samples into mono.
// Odd-length input drops the trailing sample.
func DownmixStereo(samples []int16) []int16 {
	mono := make([]int16, len(samples)/2)
	for i := 0; i < len(mono); i++ {
		left := int32(samples[i*2])
		right := int32(samples[i*2+1])
		mono[i] = int16((left + right) / 2)
	}
	return mono
}

// PCMToWAV wraps PCM samples in a WAV container for the STT service
func PCMToWAV(samples []int16, sampleRate, numChannels int) []byte {
	var buf bytes.Buffer

	bitsPerSample := 16
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2 // 2 bytes per sample
	fileSize := 36 + dataSize

	// Write WAV header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // audio format (PCM)
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))

	// Write PCM data
	for _, sample := range samples {
		binary.Write(&buf, binary.LittleEndian, sample)
	}

	return buf.Bytes()
}
