//go:build !pcap
// +build !pcap

// Package pcapsource replays Pandar64 UDP payloads out of a pcap capture,
// for lidar recordings made outside the bag container.
package pcapsource

import (
	"context"
	"fmt"
	"time"
)

// ReadPCAPFile is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable pcap file reading.
func ReadPCAPFile(ctx context.Context, pcapFile string, udpPort int, fn func(ts time.Time, payload []byte) error) error {
	return fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to enable pcap file reading")
}
