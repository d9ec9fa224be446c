package gowled

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the real wire format against a local listener on the DDP
// port.  Skipped when something else already owns 4048.
func Test_ddp_Write(t *testing.T) {
	var addr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DDP_PORT}
	var listener, err = net.ListenUDP("udp", addr)
	if err != nil {
		t.Skipf("DDP port unavailable: %v", err)
	}
	defer listener.Close()

	conn, err := ddp_dial("127.0.0.1")
	require.NoError(t, err)
	defer conn.close()

	var payload = []byte{10, 20, 30, 40, 50, 60}
	require.NoError(t, conn.write(payload))

	listener.SetReadDeadline(time.Now().Add(time.Second))
	var buf = make([]byte, 2048)
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)

	require.Equal(t, ddp_header_len+len(payload), n)

	var pkt = buf[:n]
	assert.Equal(t, byte(ddp_flags_ver1|ddp_flags_push), pkt[0], "single packet carries PUSH")
	assert.Equal(t, byte(1), pkt[1], "sequence starts at 1")
	assert.Equal(t, byte(ddp_id_default), pkt[3])
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(pkt[4:8]))
	assert.Equal(t, uint16(len(payload)), binary.BigEndian.Uint16(pkt[8:10]))
	assert.Equal(t, payload, pkt[ddp_header_len:])
}

func Test_ddp_Write_Chunked(t *testing.T) {
	var addr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DDP_PORT}
	var listener, err = net.ListenUDP("udp", addr)
	if err != nil {
		t.Skipf("DDP port unavailable: %v", err)
	}
	defer listener.Close()

	conn, err := ddp_dial("127.0.0.1")
	require.NoError(t, err)
	defer conn.close()

	// 1000 LEDs = 3000 bytes: three packets of 1440/1440/120.
	var payload = make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, conn.write(payload))

	var offsets []uint32
	var sizes []int
	var lastFlags byte

	listener.SetReadDeadline(time.Now().Add(time.Second))
	var buf = make([]byte, 2048)
	for i := 0; i < 3; i++ {
		n, _, err := listener.ReadFromUDP(buf)
		require.NoError(t, err)
		offsets = append(offsets, binary.BigEndian.Uint32(buf[4:8]))
		sizes = append(sizes, n-ddp_header_len)
		lastFlags = buf[0]
	}

	assert.Equal(t, []uint32{0, 1440, 2880}, offsets)
	assert.Equal(t, []int{1440, 1440, 120}, sizes)
	assert.NotZero(t, lastFlags&ddp_flags_push, "only the final packet latches the frame")
}
