package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Relay mode: re-drive local devices from frames sent
 *		by another instance.
 *
 * Description:	A UDP listener accepts raw RGB frames sized to the
 *		configured relay width x height (3*W*H bytes).  The
 *		newest complete frame wins; the mode loop samples it
 *		each tick and maps it onto the local strip through the
 *		serpentine convention.  Wrong-sized datagrams are
 *		counted and dropped.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"net"
	"sync"
)

type relay_listener_s struct {
	conn *net.UDPConn

	width  int
	height int

	mu         sync.Mutex
	last_frame []byte

	bad_frames uint64
}

/*-------------------------------------------------------------------
 *
 * Name:        relay_listen
 *
 * Purpose:     Bind the listener and start the reader goroutine.
 *
 *--------------------------------------------------------------------*/

func relay_listen(ip string, port int, width int, height int) (*relay_listener_s, error) {
	var addr, err = net.ResolveUDPAddr("udp", net.JoinHostPort(ip, fmt.Sprintf("%d", port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstructFailed, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstructFailed, err)
	}

	var l = &relay_listener_s{
		conn:   conn,
		width:  width,
		height: height,
	}

	go l.read_loop()

	return l, nil
}

func (l *relay_listener_s) read_loop() {
	var want = l.width * l.height * 3
	var buf = make([]byte, want+1500)

	for {
		var n, _, err = l.conn.ReadFromUDP(buf)
		if err != nil {
			// Closed socket ends the goroutine.
			return
		}

		if n != want {
			l.mu.Lock()
			l.bad_frames++
			var bad = l.bad_frames
			l.mu.Unlock()
			if bad%100 == 1 {
				logger.Warn("relay frame length mismatch",
					"got", n, "want", want, "total_bad", bad)
			}
			continue
		}

		var frame = make([]byte, want)
		copy(frame, buf[:n])

		l.mu.Lock()
		l.last_frame = frame
		l.mu.Unlock()
	}
}

// latest returns the newest frame, or nil before the first arrival.
func (l *relay_listener_s) latest() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last_frame
}

func (l *relay_listener_s) close() {
	l.conn.Close()
}

/*-------------------------------------------------------------------
 *
 * Name:        relay_map_frame
 *
 * Purpose:     Map a W x H source frame onto total_leds strip bytes
 *		via the serpentine convention.
 *
 * Description:	The source frame is row-major (x,y).  Extra strip
 *		LEDs past the grid stay dark; a grid bigger than the
 *		strip is cropped.
 *
 *--------------------------------------------------------------------*/

func relay_map_frame(src []byte, width int, height int, totalLEDs int) []byte {
	var out = make([]byte, totalLEDs*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var srcIdx = (y*width + x) * 3
			var led = serpentine_index(x, y, width)
			if led >= totalLEDs || srcIdx+2 >= len(src) {
				continue
			}
			out[led*3] = src[srcIdx]
			out[led*3+1] = src[srcIdx+1]
			out[led*3+2] = src[srcIdx+2]
		}
	}

	return out
}
