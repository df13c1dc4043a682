package pandar

import (
	"encoding/binary"
	"fmt"
)

// Hesai Pandar64 LiDAR packet structure constants.
// These define the fixed format of UDP packets emitted by the sensor and
// captured into the bag. Every offset below must match the published packet
// layout exactly; a deviation silently corrupts output, so all layout
// knowledge lives in this one block.
const (
	PACKET_SIZE        = 1194 // Standard UDP payload size in bytes
	HEADER_SIZE        = 8    // SOP (0xEEFF) + laser num + block num + return flag + dis unit + reserved
	BLOCKS_PER_PACKET  = 6    // Number of data blocks per packet
	CHANNELS_PER_BLOCK = 64   // Number of laser channels per data block
	BYTES_PER_CHANNEL  = 3    // Channel data size: 2 bytes distance + 1 byte reflectance
	AZIMUTH_SIZE       = 2    // Azimuth field size per block (little-endian)
	BLOCK_SIZE         = AZIMUTH_SIZE + CHANNELS_PER_BLOCK*BYTES_PER_CHANNEL // 194 bytes
	RANGING_DATA_SIZE  = BLOCKS_PER_PACKET * BLOCK_SIZE                      // 1164 bytes for all blocks
	TAIL_START         = HEADER_SIZE + RANGING_DATA_SIZE                     // Fixed tail offset (1172)
	TAIL_SIZE          = 22                                                  // Data tail size in bytes
	RETURN_MODE_OFFSET = 14                                                  // Return-mode marker offset within the tail

	// Physical measurement conversion constants
	DISTANCE_LSB_MM    = 4    // Distance unit: 4mm per LSB
	AZIMUTH_RESOLUTION = 0.01 // Azimuth unit: 0.01 degrees per LSB

	// Return-mode marker values (tail byte 14)
	RETURN_MODE_STRONGEST = 0x37
	RETURN_MODE_LAST      = 0x38
	RETURN_MODE_DUAL      = 0x39
)

// ReturnMode describes the firing mode a packet was captured in. Dual-return
// packets carry every angular sample twice, once per return.
type ReturnMode int

const (
	ReturnModeSingle ReturnMode = iota
	ReturnModeDual
)

func (m ReturnMode) String() string {
	if m == ReturnModeDual {
		return "dual"
	}
	return "single"
}

// ChannelReading is one laser channel's raw measurement within a block.
// A zero distance means no return was detected for that channel.
type ChannelReading struct {
	DistanceMM  uint32 // Distance in millimetres (raw value × 4mm LSB)
	Reflectance uint8  // Return intensity (0-255)
}

// FiringBlock is one angular sample within a packet, covering all channels
// at one azimuth instant. The codec always emits CHANNELS_PER_BLOCK
// channels; the count is a slice so reconstruction can be exercised on
// smaller synthetic blocks.
type FiringBlock struct {
	AzimuthDeg float64
	Channels   []ChannelReading
}

// Packet is one decoded Pandar64 UDP packet.
type Packet struct {
	Blocks    [BLOCKS_PER_PACKET]FiringBlock
	Mode      ReturnMode
	RawMode   uint8 // Marker byte as captured, kept for diagnostics
	KnownMode bool  // False when the marker byte is not a documented value
}

// DecodePacket decodes one raw UDP payload into its firing blocks and
// return-mode marker. Packets shorter than the fixed layout fail with
// ErrMalformedPacket; the caller is expected to skip the packet and keep
// processing the rest of the scan.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < PACKET_SIZE {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedPacket, PACKET_SIZE, len(data))
	}

	pkt := &Packet{}

	offset := HEADER_SIZE
	for blockIdx := 0; blockIdx < BLOCKS_PER_PACKET; blockIdx++ {
		block := &pkt.Blocks[blockIdx]
		block.AzimuthDeg = float64(binary.LittleEndian.Uint16(data[offset:offset+2])) * AZIMUTH_RESOLUTION
		block.Channels = make([]ChannelReading, CHANNELS_PER_BLOCK)
		offset += AZIMUTH_SIZE

		for ch := 0; ch < CHANNELS_PER_BLOCK; ch++ {
			raw := binary.LittleEndian.Uint16(data[offset : offset+2])
			block.Channels[ch] = ChannelReading{
				DistanceMM:  uint32(raw) * DISTANCE_LSB_MM,
				Reflectance: data[offset+2],
			}
			offset += BYTES_PER_CHANNEL
		}
	}

	pkt.RawMode = data[TAIL_START+RETURN_MODE_OFFSET]
	switch pkt.RawMode {
	case RETURN_MODE_DUAL:
		pkt.Mode = ReturnModeDual
		pkt.KnownMode = true
	case RETURN_MODE_STRONGEST, RETURN_MODE_LAST:
		pkt.Mode = ReturnModeSingle
		pkt.KnownMode = true
	default:
		// Unknown markers decode as single return; the scan-level counters
		// record the occurrence so it is never silent.
		pkt.Mode = ReturnModeSingle
		pkt.KnownMode = false
	}

	return pkt, nil
}
