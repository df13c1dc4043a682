package pandar

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildTestPacket assembles a synthetic Pandar64 UDP payload. azimuths gives
// the per-block azimuth in raw 0.01-degree units; mode is the raw
// return-mode marker; set provides each channel's (distance mm,
// reflectance) and may be nil for an all-zero packet. Distances must be
// multiples of the 4mm LSB.
func buildTestPacket(t *testing.T, azimuths [BLOCKS_PER_PACKET]uint16, mode byte, set func(block, ch int) (uint32, uint8)) []byte {
	t.Helper()

	data := make([]byte, PACKET_SIZE)
	offset := HEADER_SIZE
	for b := 0; b < BLOCKS_PER_PACKET; b++ {
		binary.LittleEndian.PutUint16(data[offset:offset+2], azimuths[b])
		offset += AZIMUTH_SIZE

		for ch := 0; ch < CHANNELS_PER_BLOCK; ch++ {
			if set != nil {
				mm, refl := set(b, ch)
				if mm%DISTANCE_LSB_MM != 0 {
					t.Fatalf("test distance %dmm is not a multiple of the %dmm LSB", mm, DISTANCE_LSB_MM)
				}
				binary.LittleEndian.PutUint16(data[offset:offset+2], uint16(mm/DISTANCE_LSB_MM))
				data[offset+2] = refl
			}
			offset += BYTES_PER_CHANNEL
		}
	}

	data[TAIL_START+RETURN_MODE_OFFSET] = mode
	return data
}

func TestLayoutConstants(t *testing.T) {
	if BLOCK_SIZE != 194 {
		t.Errorf("expected 194-byte blocks, got %d", BLOCK_SIZE)
	}
	if RANGING_DATA_SIZE != 1164 {
		t.Errorf("expected 1164 bytes of ranging data, got %d", RANGING_DATA_SIZE)
	}
	if TAIL_START+TAIL_SIZE != PACKET_SIZE {
		t.Errorf("tail at %d + %d bytes does not close the %d-byte packet", TAIL_START, TAIL_SIZE, PACKET_SIZE)
	}
}

func TestDecodePacketLayout(t *testing.T) {
	azimuths := [BLOCKS_PER_PACKET]uint16{0, 6050, 12000, 18025, 24000, 30075}
	packet := buildTestPacket(t, azimuths, RETURN_MODE_LAST, func(block, ch int) (uint32, uint8) {
		if block == 2 && ch == 37 {
			return 12000, 201
		}
		return 0, 0
	})

	pkt, err := DecodePacket(packet)
	if err != nil {
		t.Fatalf("failed to decode packet: %v", err)
	}

	for b, raw := range azimuths {
		want := float64(raw) * AZIMUTH_RESOLUTION
		if got := pkt.Blocks[b].AzimuthDeg; got != want {
			t.Errorf("block %d azimuth: expected %v, got %v", b, want, got)
		}
		if len(pkt.Blocks[b].Channels) != CHANNELS_PER_BLOCK {
			t.Fatalf("block %d: expected %d channels, got %d", b, CHANNELS_PER_BLOCK, len(pkt.Blocks[b].Channels))
		}
	}

	reading := pkt.Blocks[2].Channels[37]
	if reading.DistanceMM != 12000 {
		t.Errorf("expected 12000mm, got %d", reading.DistanceMM)
	}
	if reading.Reflectance != 201 {
		t.Errorf("expected reflectance 201, got %d", reading.Reflectance)
	}

	if pkt.Mode != ReturnModeSingle || !pkt.KnownMode {
		t.Errorf("expected known single-return mode, got %v (known=%v)", pkt.Mode, pkt.KnownMode)
	}
}

func TestDecodePacketDualMode(t *testing.T) {
	packet := buildTestPacket(t, [BLOCKS_PER_PACKET]uint16{}, RETURN_MODE_DUAL, nil)

	pkt, err := DecodePacket(packet)
	if err != nil {
		t.Fatalf("failed to decode packet: %v", err)
	}
	if pkt.Mode != ReturnModeDual || !pkt.KnownMode {
		t.Errorf("expected known dual-return mode, got %v (known=%v)", pkt.Mode, pkt.KnownMode)
	}
}

func TestDecodePacketUnknownMode(t *testing.T) {
	packet := buildTestPacket(t, [BLOCKS_PER_PACKET]uint16{}, 0x99, nil)

	pkt, err := DecodePacket(packet)
	if err != nil {
		t.Fatalf("failed to decode packet: %v", err)
	}
	if pkt.Mode != ReturnModeSingle {
		t.Errorf("unknown marker should decode as single return, got %v", pkt.Mode)
	}
	if pkt.KnownMode {
		t.Error("unknown marker should be flagged")
	}
	if pkt.RawMode != 0x99 {
		t.Errorf("raw marker byte should be preserved, got 0x%02x", pkt.RawMode)
	}
}

func TestDecodePacketTooShort(t *testing.T) {
	for _, size := range []int{0, 1, HEADER_SIZE, PACKET_SIZE - 1} {
		_, err := DecodePacket(make([]byte, size))
		if !errors.Is(err, ErrMalformedPacket) {
			t.Errorf("size %d: expected ErrMalformedPacket, got %v", size, err)
		}
	}
}
