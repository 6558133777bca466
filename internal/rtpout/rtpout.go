// Package rtpout streams a stretched audio.Block out over UDP as RTP, using
// github.com/pion/rtp the same way ka9q_ubersdr's audio.go uses it to parse
// radiod's multicast RTP stream on the receive side - here we marshal our
// own packets instead of unmarshaling radiod's.
package rtpout

import (
	"fmt"
	"net"
	"time"

	"github.com/pion/rtp"

	"github.com/cwsl/paulstretch/audio"
)

// samplesPerPacket is the number of 16-bit samples per RTP payload (1920
// bytes): 960 frames at 48kHz is 20ms, matching the packet cadence radiod's
// own multicast stream uses.
const samplesPerPacket = 960

// Streamer sends one audio.Block as a sequence of RTP packets to a fixed UDP
// destination, one SSRC per Streamer instance.
type Streamer struct {
	conn        *net.UDPConn
	payloadType uint8
	ssrc        uint32
}

// New dials destAddr (e.g. "239.1.2.3:5004" for multicast, or any unicast
// host:port) and returns a Streamer that tags packets with payloadType and a
// freshly generated SSRC.
func New(destAddr string, payloadType uint8) (*Streamer, error) {
	addr, err := net.ResolveUDPAddr("udp", destAddr)
	if err != nil {
		return nil, fmt.Errorf("rtpout: resolving %s: %w", destAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("rtpout: dialing %s: %w", destAddr, err)
	}
	return &Streamer{
		conn:        conn,
		payloadType: payloadType,
		ssrc:        uint32(time.Now().UnixNano()),
	}, nil
}

// Close releases the underlying socket.
func (s *Streamer) Close() error {
	return s.conn.Close()
}

// Send packetizes the given channel of blk as 16-bit little-endian PCM and writes
// it out as a run of RTP packets, pacing each send by the packet's real-time
// duration so a slow listener isn't handed the whole clip at once.
//
// Stretched output is mono-per-channel by construction (section 4.3 of the
// core contract never mixes channels); callers that want all channels
// streamed construct one Streamer per channel.
func (s *Streamer) Send(blk *audio.Block, channel int) error {
	if channel < 0 || channel >= blk.ChannelCount() {
		return fmt.Errorf("rtpout: channel %d out of range (block has %d)", channel, blk.ChannelCount())
	}
	samples := blk.Channels[channel]

	seq := uint16(0)
	timestamp := uint32(0)
	packetDuration := time.Duration(float64(samplesPerPacket) / float64(blk.SampleRate) * float64(time.Second))

	for offset := 0; offset < len(samples); offset += samplesPerPacket {
		end := offset + samplesPerPacket
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[offset:end]

		payload := make([]byte, len(chunk)*2)
		for i, sample := range chunk {
			v := int16(clampFloat32(sample) * 32767)
			payload[2*i] = byte(v)
			payload[2*i+1] = byte(v >> 8)
		}

		packet := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    s.payloadType,
				SequenceNumber: seq,
				Timestamp:      timestamp,
				SSRC:           s.ssrc,
			},
			Payload: payload,
		}

		buf, err := packet.Marshal()
		if err != nil {
			return fmt.Errorf("rtpout: marshaling packet %d: %w", seq, err)
		}
		if _, err := s.conn.Write(buf); err != nil {
			return fmt.Errorf("rtpout: sending packet %d: %w", seq, err)
		}

		seq++
		timestamp += uint32(len(chunk))
		time.Sleep(packetDuration)
	}
	return nil
}

func clampFloat32(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
