package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Audio input via PortAudio.
 *
 * Description:	Opens an input stream on the configured device (or
 *		the default) and pours interleaved float32 samples
 *		into the ring from the device callback.  The stream
 *		lives for the life of live mode.
 *
 *		Device matching is a case-insensitive substring so
 *		"scarlett" finds "Focusrite Scarlett 2i2 USB".
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

type audio_capture_s struct {
	stream      *portaudio.Stream
	ring        *audio_ring_s
	device_name string
	sample_rate float64
	channels    int
}

/*-------------------------------------------------------------------
 *
 * Name:        list_audio_devices
 *
 * Purpose:     Enumerate capture-capable devices for the CLI.
 *
 *--------------------------------------------------------------------*/

func list_audio_devices() ([]string, error) {
	var devices, err = portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no audio input devices found")
	}
	return names, nil
}

func find_audio_device(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}

	var devices, err = portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var want = strings.ToLower(name)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}

	return nil, fmt.Errorf("audio device %q not found", name)
}

/*-------------------------------------------------------------------
 *
 * Name:        open_audio_capture
 *
 * Purpose:     Start capturing into a fresh two-second ring.
 *
 * Description:	Callers must pair with (c) close, which also
 *		terminates the PortAudio session opened here.
 *
 *--------------------------------------------------------------------*/

func open_audio_capture(deviceName string) (*audio_capture_s, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	var dev, err = find_audio_device(deviceName)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	var channels = dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}

	var sampleRate = dev.DefaultSampleRate
	var ring = new_audio_ring(int(sampleRate), channels)

	var params = portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = channels
	params.SampleRate = sampleRate

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		ring.append(in)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}

	logger.Info("audio capture started",
		"device", dev.Name, "rate", sampleRate, "channels", channels)

	return &audio_capture_s{
		stream:      stream,
		ring:        ring,
		device_name: dev.Name,
		sample_rate: sampleRate,
		channels:    channels,
	}, nil
}

func (c *audio_capture_s) close() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	portaudio.Terminate()
}
