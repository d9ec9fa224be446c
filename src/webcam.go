package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Webcam frame ingest over WebSocket.
 *
 * Description:	A browser (or anything else) pushes raw BGRA frames
 *		as binary WebSocket messages, 4*W*H bytes each, where
 *		W and H match the configured webcam frame size.  Text
 *		messages carry a small JSON control protocol:
 *
 *		  {"type":"stats"} -> {"type":"stats","frameCount":N}
 *		  {"type":"ping"}  -> {"type":"pong"}
 *
 *		Frames are rate-limited server-side to the configured
 *		target fps; early arrivals are dropped and counted.
 *		Accepted frames convert BGRA to RGB with the webcam
 *		brightness multiplier and go straight to the fan-out.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type webcam_state_s struct {
	frames_received atomic.Uint64
	frames_sent     atomic.Uint64
	frames_dropped  atomic.Uint64
	bad_frames      atomic.Uint64

	mu              sync.Mutex
	last_frame_time time.Time
	manager         *multi_device_manager_s
	config          *led_config_s
}

func new_webcam_state(cfg *led_config_s, manager *multi_device_manager_s) *webcam_state_s {
	return &webcam_state_s{
		config:  cfg,
		manager: manager,
	}
}

// update_config swaps the active config (and manager, when the device
// set was rebuilt) under the lock.
func (st *webcam_state_s) update_config(cfg *led_config_s, manager *multi_device_manager_s) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.config = cfg
	if manager != nil {
		st.manager = manager
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        bgra_to_rgb
 *
 * Purpose:     Convert one BGRA frame to RGB with brightness.
 *
 * Description:	Browser canvases hand out BGRA, so channel 0 is blue.
 *		Each channel scales by the brightness multiplier and
 *		clamps to 255; alpha is discarded.
 *
 *--------------------------------------------------------------------*/

func bgra_to_rgb(data []byte, brightness float64) []byte {
	var pixels = len(data) / 4
	var out = make([]byte, pixels*3)

	var scale = func(v byte) byte {
		return byte(math.Min(255, float64(v)*brightness))
	}

	for i := 0; i < pixels; i++ {
		var b = data[i*4]
		var g = data[i*4+1]
		var r = data[i*4+2]

		out[i*3] = scale(r)
		out[i*3+1] = scale(g)
		out[i*3+2] = scale(b)
	}

	return out
}

/*-------------------------------------------------------------------
 *
 * Name:        (st) process_frame
 *
 * Purpose:     Validate, rate-limit, convert and send one frame.
 *
 * Errors:	ErrBadFrameLength on size mismatch; the connection
 *		stays up and the next frame is accepted.
 *
 *--------------------------------------------------------------------*/

func (st *webcam_state_s) process_frame(data []byte, now time.Time) error {
	st.frames_received.Add(1)

	st.mu.Lock()
	var cfg = st.config
	var manager = st.manager

	var want = cfg.WebcamFrameWidth * cfg.WebcamFrameHeight * 4
	if len(data) != want {
		st.mu.Unlock()
		st.bad_frames.Add(1)
		return ErrBadFrameLength
	}

	// Server-side fps cap: frames ahead of the next slot are dropped.
	var interval = time.Duration(float64(time.Second) / cfg.WebcamTargetFPS)
	if now.Sub(st.last_frame_time) < interval {
		st.mu.Unlock()
		st.frames_dropped.Add(1)
		return nil
	}
	st.last_frame_time = now
	st.mu.Unlock()

	var rgb = bgra_to_rgb(data, cfg.WebcamBrightness)

	if errs := manager.send_frame_with_brightness(rgb, cfg.GlobalBrightness); len(errs) > 0 {
		st.frames_dropped.Add(1)
		return errs[0]
	}

	st.frames_sent.Add(1)
	return nil
}

/*====================================================================
 *  WebSocket server
 *====================================================================*/

type webcam_server_s struct {
	state  *webcam_state_s
	server *http.Server
}

var webcam_upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 12,
	// The ingest endpoint is LAN-facing, same trust domain as the
	// DDP targets.
	CheckOrigin: func(r *http.Request) bool { return true },
}

/*-------------------------------------------------------------------
 *
 * Name:        serve_webcam_ingest
 *
 * Purpose:     Start the /ws ingest endpoint on the configured
 *		address.  Shut down with (s) close.
 *
 *--------------------------------------------------------------------*/

func serve_webcam_ingest(addr string, state *webcam_state_s) (*webcam_server_s, error) {
	var mux = http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		var conn, err = webcam_upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		handle_webcam_conn(conn, state)
	})

	var srv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("webcam ingest server failed", "err", err)
		}
	}()

	logger.Info("webcam ingest listening", "addr", addr)

	return &webcam_server_s{state: state, server: srv}, nil
}

func (s *webcam_server_s) close() {
	s.server.Close()
}

func handle_webcam_conn(conn *websocket.Conn, state *webcam_state_s) {
	defer conn.Close()

	// Tell the client what to send before the first frame.
	state.mu.Lock()
	var cfg = state.config
	state.mu.Unlock()

	var hello, _ = json.Marshal(map[string]any{
		"type":      "config",
		"width":     cfg.WebcamFrameWidth,
		"height":    cfg.WebcamFrameHeight,
		"targetFps": cfg.WebcamTargetFPS,
	})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}

	for {
		var msgType, data, err = conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := state.process_frame(data, time.Now()); err != nil {
				logger.Debug("webcam frame rejected", "err", err)
			}

		case websocket.TextMessage:
			handle_webcam_text(conn, state, data)
		}
	}
}

func handle_webcam_text(conn *websocket.Conn, state *webcam_state_s, data []byte) {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Debug("webcam control message unparseable", "err", err)
		return
	}

	switch msg.Type {
	case "stats":
		var reply, _ = json.Marshal(map[string]any{
			"type":       "stats",
			"frameCount": state.frames_received.Load(),
		})
		conn.WriteMessage(websocket.TextMessage, reply)

	case "ping":
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))

	default:
		logger.Debug("unknown webcam message type", "type", msg.Type)
	}
}
