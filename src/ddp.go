package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	DDP display-protocol client for one controller.
 *
 * Description:	DDP (Distributed Display Protocol) is the UDP framing
 *		WLED listens for on port 4048.  Each packet is a
 *		10-byte header followed by raw RGB payload:
 *
 *		  byte 0   flags: version 1, PUSH set on the last
 *		           packet of a frame
 *		  byte 1   sequence number, 1..15 rolling (0 = off)
 *		  byte 2   data type (undefined here, 0)
 *		  byte 3   destination id, 1 = default output device
 *		  4..7     data offset in bytes, big endian
 *		  8..9     payload length in bytes, big endian
 *
 *		Frames larger than one MTU are split across packets
 *		with advancing offsets; only the last carries PUSH so
 *		the controller latches the whole frame at once.
 *
 *		The protocol is fire-and-forget by design.  Loss shows
 *		up as a late frame, never as a stall.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"net"
)

const (
	DDP_PORT = 4048

	ddp_flags_ver1 = 0x40
	ddp_flags_push = 0x01

	ddp_id_default = 0x01

	ddp_header_len = 10

	// Payload per packet, kept under typical 1500-byte MTUs and a
	// multiple of 3 so pixels never straddle packets.
	ddp_max_payload = 1440
)

type ddp_conn_s struct {
	conn *net.UDPConn
	seq  uint8
}

/*-------------------------------------------------------------------
 *
 * Name:        ddp_dial
 *
 * Purpose:     Open a UDP socket to one controller, bound to an
 *		ephemeral local port.
 *
 *--------------------------------------------------------------------*/

func ddp_dial(ip string) (*ddp_conn_s, error) {
	var addr, err = net.ResolveUDPAddr("udp", net.JoinHostPort(ip, fmt.Sprintf("%d", DDP_PORT)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConstructFailed, ip, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConstructFailed, ip, err)
	}

	return &ddp_conn_s{conn: conn}, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        (c) write
 *
 * Purpose:     Send one device frame (3 * led_count bytes of RGB).
 *
 *--------------------------------------------------------------------*/

func (c *ddp_conn_s) write(payload []byte) error {
	var offset = 0

	for offset < len(payload) {
		var n = len(payload) - offset
		if n > ddp_max_payload {
			n = ddp_max_payload
		}
		var last = offset+n >= len(payload)

		c.seq++
		if c.seq > 15 {
			c.seq = 1
		}

		var pkt = make([]byte, ddp_header_len+n)
		pkt[0] = ddp_flags_ver1
		if last {
			pkt[0] |= ddp_flags_push
		}
		pkt[1] = c.seq
		pkt[2] = 0
		pkt[3] = ddp_id_default
		binary.BigEndian.PutUint32(pkt[4:8], uint32(offset))
		binary.BigEndian.PutUint16(pkt[8:10], uint16(n))
		copy(pkt[ddp_header_len:], payload[offset:offset+n])

		if _, err := c.conn.Write(pkt); err != nil {
			return fmt.Errorf("%w: %v", ErrSendFailed, err)
		}

		offset += n
	}

	return nil
}

func (c *ddp_conn_s) close() {
	c.conn.Close()
}
