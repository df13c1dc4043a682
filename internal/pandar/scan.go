package pandar

import (
	"fmt"

	"github.com/banshee-data/bag.report/internal/monitoring"
)

// ScanStamp is the lead-packet timestamp of a scan message, used as the
// export identity for the assembled cloud.
type ScanStamp struct {
	Secs  uint32
	Nsecs uint32
}

// Identity renders the stamp in the "<seconds>.<nanoseconds>" form the sink
// names files by.
func (s ScanStamp) Identity() string {
	return fmt.Sprintf("%d.%d", s.Secs, s.Nsecs)
}

// ScanCloud is the assembled point cloud of one scan message. It is built
// once, handed to the sink and then discarded; nothing mutates it after
// assembly.
type ScanCloud struct {
	Stamp  ScanStamp
	Points []Point
	Stats  ScanStats
}

// ScanStats counts per-scan degradations. Packet-level failures never abort
// the scan message, so the counters are the only record of what was dropped.
type ScanStats struct {
	PacketsDecoded  int
	PacketsDropped  int // Malformed packets skipped
	PacketsMismatch int // Packets dropped for calibration/channel count mismatch
	UnknownModes    int // Packets with an undocumented return-mode marker
	BlocksSelected  int
}

// Degraded reports whether any packet of the scan was skipped.
func (s ScanStats) Degraded() bool {
	return s.PacketsDropped > 0 || s.PacketsMismatch > 0
}

// ResolveBlocks selects the subsequence of a packet's blocks that represent
// true angular samples. Single-return packets use every block. Dual-return
// packets duplicate each angular sample across an even/odd block pair; the
// odd slot (second return) is taken so the same azimuth is not counted
// twice. Which return is authoritative is firmware policy carried over from
// the capture tooling.
func ResolveBlocks(mode ReturnMode) (start, stride int) {
	if mode == ReturnModeDual {
		return 1, 2
	}
	return 0, 1
}

// AssembleScan runs the full per-scan pipeline: the calibration table is
// rebuilt from the trailing packet, every leading packet is decoded,
// resolved and reconstructed, and all valid points are accumulated in
// packet→block→channel order into one cloud.
//
// A calibration failure aborts the scan message (no reconstruction is
// possible without it). Malformed packets and channel-count mismatches are
// skipped and counted; the scan still reaches assembly with the points from
// the remaining packets, producing an empty cloud in the worst case.
func AssembleScan(stamp ScanStamp, packets [][]byte) (*ScanCloud, error) {
	if len(packets) == 0 {
		return nil, fmt.Errorf("pandar: scan message %s has no packets", stamp.Identity())
	}

	cal, err := ParseCalibration(packets[len(packets)-1])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", stamp.Identity(), err)
	}

	cloud := &ScanCloud{
		Stamp: stamp,
		// A full single-return packet yields at most 6×64 points.
		Points: make([]Point, 0, (len(packets)-1)*BLOCKS_PER_PACKET*CHANNELS_PER_BLOCK),
	}

	for i, raw := range packets[:len(packets)-1] {
		pkt, err := DecodePacket(raw)
		if err != nil {
			cloud.Stats.PacketsDropped++
			monitoring.Logf("scan %s: dropping packet %d: %v", stamp.Identity(), i, err)
			continue
		}
		if !pkt.KnownMode {
			cloud.Stats.UnknownModes++
			monitoring.Logf("scan %s: packet %d has unknown return mode 0x%02x, treating as single",
				stamp.Identity(), i, pkt.RawMode)
		}

		start, stride := ResolveBlocks(pkt.Mode)
		points := cloud.Points
		selected := 0
		mismatch := false
		for b := start; b < len(pkt.Blocks); b += stride {
			points, err = ReconstructBlock(points, &pkt.Blocks[b], cal)
			if err != nil {
				// The table cannot match one block but not another; drop the
				// whole packet and keep its points out of the cloud.
				cloud.Stats.PacketsMismatch++
				monitoring.Logf("scan %s: dropping packet %d: %v", stamp.Identity(), i, err)
				mismatch = true
				break
			}
			selected++
		}
		if mismatch {
			continue
		}

		cloud.Points = points
		cloud.Stats.PacketsDecoded++
		cloud.Stats.BlocksSelected += selected
	}

	return cloud, nil
}
