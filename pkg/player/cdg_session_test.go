package player

import (
	"testing"

	"github.com/gokaraoke/gokaraoke/pkg/cdg"
)

// instructionPacket builds one 24-byte CDG packet.
func instructionPacket(instruction byte, data []byte) []byte {
	pkt := make([]byte, cdg.PacketSize)
	pkt[0] = 0x09
	pkt[1] = instruction
	copy(pkt[4:20], data)
	return pkt
}

// encodeColourEntry packs a 12-bit RGB value into its two wire bytes.
func encodeColourEntry(r, g, b byte) (byte, byte) {
	v := uint16(r&0x0F)<<8 | uint16(g&0x0F)<<4 | uint16(b&0x0F)
	return byte(v >> 6), byte(v & 0x3F)
}

// redTableAndPreset yields a stream that loads red into slot 1 and clears
// the screen to it.
func redTableAndPreset() []byte {
	table := make([]byte, 16)
	hi, lo := encodeColourEntry(15, 0, 0)
	table[2] = hi
	table[3] = lo

	stream := instructionPacket(30, table) // colour table, slots 0-7
	preset := make([]byte, 16)
	preset[0] = 1
	return append(stream, instructionPacket(1, preset)...)
}

func TestCDGSession_PacketPacing(t *testing.T) {
	s := NewCDGSession(redTableAndPreset())

	// At 3 ms no packet is due yet (300 packets/sec), so the initial
	// black frame is all that gets blitted.
	if _, err := s.Update(3); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	frame := s.Frame()
	if frame[0] != 0 || frame[1] != 0 || frame[2] != 0 {
		t.Errorf("frame painted before any packet was due: RGB(%d,%d,%d)",
			frame[0], frame[1], frame[2])
	}

	// At 10 ms three packets are due; both real packets have been
	// consumed and the screen is red.
	if _, err := s.Update(10); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	frame = s.Frame()
	for _, i := range []int{0, 4 * 12345, len(frame) - 4} {
		if frame[i] != 255 || frame[i+1] != 0 || frame[i+2] != 0 || frame[i+3] != 255 {
			t.Fatalf("pixel at byte %d = RGBA(%d,%d,%d,%d), want red",
				i, frame[i], frame[i+1], frame[i+2], frame[i+3])
		}
	}
}

func TestCDGSession_ExhaustionAfterLastPacket(t *testing.T) {
	s := NewCDGSession(redTableAndPreset())

	// The first update consumes both packets and hits end-of-stream
	// mid-call, which is not yet exhaustion.
	done, err := s.Update(1000)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if done {
		t.Error("session reported done on the update that consumed real packets")
	}

	done, err = s.Update(2000)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !done {
		t.Error("session should be done once the stream is exhausted")
	}
}

func TestCDGSession_BorderColour(t *testing.T) {
	table := make([]byte, 16)
	hi, lo := encodeColourEntry(0, 15, 0)
	table[4] = hi // slot 2 = green
	table[5] = lo
	stream := instructionPacket(30, table)

	border := make([]byte, 16)
	border[0] = 2
	stream = append(stream, instructionPacket(2, border)...)

	s := NewCDGSession(stream)
	if _, err := s.Update(1000); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got := s.BorderColour(); got != cdg.PackRGB(0, 255, 0) {
		t.Errorf("border colour = %06x, want 00ff00", got)
	}
}

func TestCDGSession_Rewind(t *testing.T) {
	s := NewCDGSession(redTableAndPreset())
	s.Update(1000)
	s.Update(2000)

	s.Rewind()
	done, err := s.Update(1000)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if done {
		t.Error("rewound session should decode from the start again")
	}
	frame := s.Frame()
	if frame[0] != 255 {
		t.Error("rewound session did not repaint the frame")
	}
}
