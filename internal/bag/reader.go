// Package bag reads recorded ROS bag captures and exposes the typed message
// views the extractors consume.
package bag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lherman-cs/go-rosbag"
)

// Message is one time-stamped message on a topic. Time is the bag record
// (receive) time; View decodes the payload into a tagged struct.
type Message struct {
	Topic string
	Time  time.Time

	record *rosbag.RecordMessageData
}

// View decodes the message payload into v, matching struct fields by their
// `rosbag` tags against the recorded message definition.
func (m *Message) View(v interface{}) error {
	return m.record.ViewAs(v)
}

// ErrStop can be returned from a ForEachMessage callback to end the pass
// early without reporting an error.
var ErrStop = errors.New("bag: stop iteration")

// Topics scans the bag once and returns every topic with its recorded
// message type, in first-seen order.
func Topics(path string) ([]TopicInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bag: %w", err)
	}
	defer f.Close()

	var topics []TopicInfo
	seen := make(map[string]bool)

	decoder := rosbag.NewDecoder(f)
	for {
		record, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bag: decode %s: %w", path, err)
		}

		if conn, ok := record.(*rosbag.RecordConnection); ok {
			if !seen[conn.Topic] {
				seen[conn.Topic] = true
				topics = append(topics, TopicInfo{Topic: conn.Topic})
			}
		}
	}

	return topics, nil
}

// TopicInfo describes one topic recorded in a bag.
type TopicInfo struct {
	Topic string
}

// ForEachMessage streams every message on the given topic, in record order,
// through fn. Each call makes a fresh pass over the bag file; the decoder is
// single-pass by design, and per-topic passes keep the extractors
// independent of one another.
func ForEachMessage(path, topic string, fn func(*Message) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bag: %w", err)
	}
	defer f.Close()

	decoder := rosbag.NewDecoder(f)
	for {
		record, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("bag: decode %s: %w", path, err)
		}

		msg, ok := record.(*rosbag.RecordMessageData)
		if !ok || msg.Conn == nil || msg.Conn.Topic != topic {
			continue
		}

		if err := fn(&Message{Topic: topic, Time: msg.Time, record: msg}); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}
