package recognize

import (
	"encoding/binary"

	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

const wavHeaderSize = 44

// EncodeWAV wraps mono PCM samples in a RIFF/WAVE container.
func EncodeWAV(a segment.Audio) []byte {
	const channels = 1
	blockAlign := channels * a.SampleWidth
	byteRate := a.SampleRate * blockAlign
	dataLen := len(a.Data)

	buf := make([]byte, wavHeaderSize+dataLen)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataLen))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:], channels)
	binary.LittleEndian.PutUint32(buf[24:], uint32(a.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:], uint16(a.SampleWidth*8))
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	copy(buf[wavHeaderSize:], a.Data)
	return buf
}
