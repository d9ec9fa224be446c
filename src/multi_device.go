package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Multi-device frame fan-out.
 *
 * Description:	A logical frame covers the whole installation; each
 *		controller owns a contiguous LED range of it.  The
 *		manager validates that enabled ranges never overlap,
 *		opens one DDP socket per enabled device, and on every
 *		send carves the frame into per-device byte slices.
 *
 *		All-black slices are normally skipped to save wire
 *		traffic, but WLED drops back to its own effects after
 *		about a second of silence, so any device that has not
 *		been written for KEEPALIVE_INTERVAL gets the frame
 *		anyway.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// WLED's DDP input times out after ~1 second; half that keeps us safe.
const KEEPALIVE_INTERVAL = 500 * time.Millisecond

// frame_writer_i is the wire behind one device.  Production code uses
// ddp_conn_s; tests substitute a recorder.
type frame_writer_i interface {
	write(payload []byte) error
	close()
}

type multi_device_config_s struct {
	Devices      []wled_device_s
	SendParallel bool
	FailFast     bool
}

func multi_device_config_from(cfg *led_config_s) multi_device_config_s {
	return multi_device_config_s{
		Devices:      cfg.effective_devices(),
		SendParallel: cfg.MultiDeviceSendParallel,
		FailFast:     cfg.MultiDeviceFailFast,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        validate_device_overlap
 *
 * Purpose:     Reject any pair of enabled devices whose half-open
 *		LED ranges [offset, offset+count) intersect.
 *
 *--------------------------------------------------------------------*/

func validate_device_overlap(devices []wled_device_s) error {
	for i := range devices {
		if !devices[i].Enabled {
			continue
		}
		for j := i + 1; j < len(devices); j++ {
			if !devices[j].Enabled {
				continue
			}

			var aStart, aEnd = devices[i].LEDOffset, devices[i].LEDOffset + devices[i].LEDCount
			var bStart, bEnd = devices[j].LEDOffset, devices[j].LEDOffset + devices[j].LEDCount

			if aStart < bEnd && aEnd > bStart {
				return fmt.Errorf("%w: device %s LEDs %d-%d overlap device %s LEDs %d-%d",
					ErrConfigValidation,
					devices[i].IP, aStart, aEnd-1,
					devices[j].IP, bStart, bEnd-1)
			}
		}
	}
	return nil
}

type device_conn_s struct {
	device wled_device_s

	mu        sync.Mutex
	writer    frame_writer_i
	last_send time.Time
}

type multi_device_manager_s struct {
	config  multi_device_config_s
	devices []*device_conn_s

	// Injection points for tests.
	dial func(ip string) (frame_writer_i, error)
	now  func() time.Time
}

/*-------------------------------------------------------------------
 *
 * Name:        new_multi_device_manager
 *
 * Purpose:     Validate the device list and open a socket per
 *		enabled device.
 *
 * Description:	A device whose socket cannot be opened is skipped
 *		with a warning; the manager fails only when nothing
 *		at all is reachable.  Overlapping enabled ranges fail
 *		before any socket is touched.
 *
 *--------------------------------------------------------------------*/

func new_multi_device_manager(config multi_device_config_s) (*multi_device_manager_s, error) {
	return new_multi_device_manager_dialer(config, func(ip string) (frame_writer_i, error) {
		return ddp_dial(ip)
	}, time.Now)
}

func new_multi_device_manager_dialer(config multi_device_config_s, dial func(string) (frame_writer_i, error), now func() time.Time) (*multi_device_manager_s, error) {
	if len(config.Devices) == 0 {
		return nil, fmt.Errorf("%w: no devices configured", ErrConstructFailed)
	}

	if err := validate_device_overlap(config.Devices); err != nil {
		return nil, err
	}

	var m = &multi_device_manager_s{config: config, dial: dial, now: now}

	for _, dev := range config.Devices {
		if !dev.Enabled {
			continue
		}

		var w, err = dial(dev.IP)
		if err != nil {
			logger.Warn("device unreachable, skipping", "ip", dev.IP, "err", err)
			continue
		}

		m.devices = append(m.devices, &device_conn_s{
			device:    dev,
			writer:    w,
			last_send: now(),
		})
	}

	if len(m.devices) == 0 {
		return nil, fmt.Errorf("%w: no devices connected successfully", ErrConstructFailed)
	}

	return m, nil
}

func (m *multi_device_manager_s) device_count() int {
	return len(m.devices)
}

func (m *multi_device_manager_s) close() {
	for _, d := range m.devices {
		d.mu.Lock()
		d.writer.close()
		d.mu.Unlock()
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (m) send_frame / send_frame_with_brightness
 *
 * Purpose:     Deliver one logical frame to every enabled device.
 *
 * Inputs:	frame      - 3*N bytes, RGB.
 *		brightness - multiplier in [0,1]; 1 sends as-is.
 *
 * Outputs:	Per-device errors collected in order.  With fail_fast
 *		the first error aborts the remaining sequential sends.
 *
 *--------------------------------------------------------------------*/

func (m *multi_device_manager_s) send_frame(frame []byte) []error {
	return m.send_frame_with_brightness(frame, 1.0)
}

func (m *multi_device_manager_s) send_frame_with_brightness(frame []byte, brightness float64) []error {
	if len(frame)%3 != 0 {
		return []error{fmt.Errorf("%w: frame size %d not divisible by 3", ErrBadFrameLength, len(frame))}
	}

	if brightness < 1.0 {
		var scaled = make([]byte, len(frame))
		for i, b := range frame {
			scaled[i] = uint8(math.Round(float64(b) * brightness))
		}
		frame = scaled
	}

	if m.config.SendParallel {
		return m.send_parallel(frame)
	}
	return m.send_sequential(frame)
}

// send_to_device writes one device's slice, honouring the
// all-zeros-without-keepalive skip rule.  Returns nil both for a
// successful write and for a legitimate skip.
func (m *multi_device_manager_s) send_to_device(d *device_conn_s, frame []byte) error {
	var byteOffset = d.device.LEDOffset * 3
	var byteCount = d.device.LEDCount * 3

	if byteOffset+byteCount > len(frame) {
		return fmt.Errorf("%w: device %s wants LEDs %d-%d but frame has %d",
			ErrSendFailed, d.device.IP,
			d.device.LEDOffset, d.device.LEDOffset+d.device.LEDCount-1,
			len(frame)/3)
	}

	var slice = frame[byteOffset : byteOffset+byteCount]

	d.mu.Lock()
	defer d.mu.Unlock()

	var allZeros = true
	for _, b := range slice {
		if b != 0 {
			allZeros = false
			break
		}
	}

	if allZeros && m.now().Sub(d.last_send) < KEEPALIVE_INTERVAL {
		return nil
	}

	if err := d.writer.write(slice); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSendFailed, d.device.IP, err)
	}

	d.last_send = m.now()
	return nil
}

func (m *multi_device_manager_s) send_sequential(frame []byte) []error {
	var errs []error

	for _, d := range m.devices {
		if err := m.send_to_device(d, frame); err != nil {
			logger.Warn("send failed", "ip", d.device.IP, "err", err)
			errs = append(errs, err)
			if m.config.FailFast {
				return errs
			}
		}
	}

	return errs
}

func (m *multi_device_manager_s) send_parallel(frame []byte) []error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, d := range m.devices {
		wg.Add(1)
		go func(d *device_conn_s) {
			defer wg.Done()
			if err := m.send_to_device(d, frame); err != nil {
				logger.Warn("send failed", "ip", d.device.IP, "err", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(d)
	}

	wg.Wait()
	return errs
}
