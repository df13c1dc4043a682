// Command bagextract unpacks a recorded ROS bag capture into per-sensor
// artifacts: PLY point clouds for lidar scan messages, image files for
// compressed camera frames, and delimited text for single-valued sensor
// streams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/banshee-data/bag.report/internal/bag"
	"github.com/banshee-data/bag.report/internal/extract"
	"github.com/banshee-data/bag.report/internal/fsutil"
	"github.com/banshee-data/bag.report/internal/pandar"
	"github.com/banshee-data/bag.report/internal/pcapsource"
	"github.com/banshee-data/bag.report/internal/runindex"
)

var (
	bagFile    = flag.String("bag", "", "Path to the bag file to extract")
	outDir     = flag.String("out", "", "Output directory (default: bag name without extension)")
	listTopics = flag.Bool("topics", false, "List the bag's topics and exit")
	workers    = flag.Int("workers", runtime.NumCPU(), "Parallel scan-message decoders")
	indexDB    = flag.String("index", "", "Optional SQLite run-index database path")

	lidarTopic = flag.String("lidar-topic", "", "PandarScan topic to export as point clouds")
	lidarName  = flag.String("lidar-name", "lidar_0", "Subdirectory name for point cloud export")

	cameraTopic = flag.String("camera-topic", "", "CompressedImage topic to export as image files")
	cameraName  = flag.String("camera-name", "camera_0", "Subdirectory name for image export")

	pressureTopic    = flag.String("pressure-topic", "", "FluidPressure topic to export")
	illuminanceTopic = flag.String("illuminance-topic", "", "Illuminance topic to export")
	imuTopic         = flag.String("imu-topic", "", "Imu topic to export")
	magneticTopic    = flag.String("magnetic-topic", "", "MagneticField topic to export")
	gnssTopic        = flag.String("gnss-topic", "", "NavSatFix topic to export")

	pcapFile = flag.String("pcap", "", "Decode Pandar64 packets from a pcap capture instead of a bag (diagnostic)")
	udpPort  = flag.Int("udp-port", 2368, "UDP port carrying lidar packets in the pcap capture")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *pcapFile != "" {
		if err := analysePcap(ctx, *pcapFile, *udpPort); err != nil {
			log.Fatalf("pcap analysis failed: %v", err)
		}
		return
	}

	if *bagFile == "" {
		fmt.Fprintln(os.Stderr, "usage: bagextract -bag <file> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *listTopics {
		topics, err := bag.Topics(*bagFile)
		if err != nil {
			log.Fatalf("failed to read topics: %v", err)
		}
		for _, t := range topics {
			fmt.Println(t.Topic)
		}
		return
	}

	runner, err := extract.NewRunner(fsutil.OSFileSystem{}, *bagFile, *outDir)
	if err != nil {
		log.Fatalf("failed to prepare output: %v", err)
	}
	runner.Workers = *workers

	var idx *runindex.Index
	var runID string
	if *indexDB != "" {
		idx, err = runindex.Open(*indexDB)
		if err != nil {
			log.Fatalf("failed to open run index: %v", err)
		}
		defer idx.Close()

		runID, err = idx.StartRun(*bagFile)
		if err != nil {
			log.Fatalf("failed to start run: %v", err)
		}
		log.Printf("run %s started for %s", runID, *bagFile)
	}

	start := time.Now()
	var cloudSummary extract.CloudSummary

	if *lidarTopic != "" {
		cloudSummary, err = runner.ExportPointClouds(ctx, *lidarTopic, *lidarName)
		if err != nil {
			log.Fatalf("point cloud export failed: %v", err)
		}
	}

	if *cameraTopic != "" {
		if _, err := runner.ExportImages(ctx, *cameraTopic, *cameraName); err != nil {
			log.Fatalf("image export failed: %v", err)
		}
	}

	scalarTopics := []struct {
		topic string
		kind  extract.ScalarKind
	}{
		{*pressureTopic, extract.KindFluidPressure},
		{*illuminanceTopic, extract.KindIlluminance},
		{*imuTopic, extract.KindImu},
		{*magneticTopic, extract.KindMagneticField},
		{*gnssTopic, extract.KindNavSatFix},
	}
	for _, st := range scalarTopics {
		if st.topic == "" {
			continue
		}
		if _, err := runner.ExportScalars(ctx, st.topic, st.kind, ""); err != nil {
			log.Fatalf("scalar export for %s failed: %v", st.topic, err)
		}
	}

	if _, err := runner.WriteOverview(); err != nil {
		log.Fatalf("overview write failed: %v", err)
	}

	if idx != nil {
		for _, a := range runner.Artifacts() {
			if err := idx.RecordArtifact(runID, a); err != nil {
				log.Printf("run index: %v", err)
			}
		}
		if err := idx.FinishRun(runID, cloudSummary); err != nil {
			log.Printf("run index: %v", err)
		}
	}

	log.Printf("extraction complete in %v: %s", time.Since(start).Round(time.Millisecond), cloudSummary)
	if ctx.Err() != nil {
		log.Printf("run interrupted; artifacts written so far are complete files")
	}
}

// analysePcap decodes raw lidar packets out of a pcap capture and reports
// layout statistics. No calibration travels with a pcap capture, so this
// mode validates packet decoding rather than producing clouds.
func analysePcap(ctx context.Context, file string, port int) error {
	var packets, malformed, dual, unknown int

	err := pcapsource.ReadPCAPFile(ctx, file, port, func(ts time.Time, payload []byte) error {
		pkt, err := pandar.DecodePacket(payload)
		if err != nil {
			malformed++
			return nil
		}
		packets++
		if pkt.Mode == pandar.ReturnModeDual {
			dual++
		}
		if !pkt.KnownMode {
			unknown++
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("pcap analysis: %d packets decoded, %d malformed, %d dual-return, %d unknown mode",
		packets, malformed, dual, unknown)
	return nil
}
