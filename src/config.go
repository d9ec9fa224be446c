package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Persisted configuration: the single source of truth.
 *
 * Description:	One YAML document holds every knob the daemon and the
 *		control plane can touch.  Loading is strict - unknown
 *		keys are a parse error - and saving goes through a
 *		temp file plus rename so a reader can never observe a
 *		partial write.
 *
 *		Renderers never trust an in-memory copy across a
 *		change notification; they re-read this file.  That
 *		keeps "which change did I see first" questions from
 *		ever mattering.
 *
 *------------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

/* The config file location is process-global: set once at startup
   from the command line, read by every load/save. */

var (
	config_path_mu sync.Mutex
	config_path    string
)

// SetConfigPath fixes the config file location for the process.
// Empty means the per-user default.
func SetConfigPath(path string) {
	config_path_mu.Lock()
	defer config_path_mu.Unlock()
	config_path = path
}

func config_file_path() (string, error) {
	config_path_mu.Lock()
	defer config_path_mu.Unlock()

	if config_path != "" {
		return config_path, nil
	}

	var dir, err = os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gowled", "config.yaml"), nil
}

type wled_device_s struct {
	IP        string `yaml:"ip"`
	LEDOffset int    `yaml:"led_offset"`
	LEDCount  int    `yaml:"led_count"`
	Enabled   bool   `yaml:"enabled"`
}

type led_config_s struct {
	// Connectivity
	WLEDIP                  string          `yaml:"wled_ip"`
	WLEDDevices             []wled_device_s `yaml:"wled_devices"`
	MultiDeviceEnabled      bool            `yaml:"multi_device_enabled"`
	MultiDeviceSendParallel bool            `yaml:"multi_device_send_parallel"`
	MultiDeviceFailFast     bool            `yaml:"multi_device_fail_fast"`

	// Strip geometry
	TotalLEDs                 int    `yaml:"total_leds"`
	Matrix2DEnabled           bool   `yaml:"matrix_2d_enabled"`
	Matrix2DWidth             int    `yaml:"matrix_2d_width"`
	Matrix2DHeight            int    `yaml:"matrix_2d_height"`
	Matrix2DGradientDirection string `yaml:"matrix_2d_gradient_direction"`

	// Timing
	FPS                 float64 `yaml:"fps"`
	DDPDelayMS          float64 `yaml:"ddp_delay_ms"`
	AttackMS            float64 `yaml:"attack_ms"`
	DecayMS             float64 `yaml:"decay_ms"`
	InterpolationTimeMS float64 `yaml:"interpolation_time_ms"`
	EnableInterpolation bool    `yaml:"enable_interpolation"`

	// Appearance
	Color            string  `yaml:"color"`
	TXColor          string  `yaml:"tx_color"`
	RXColor          string  `yaml:"rx_color"`
	UseGradient      bool    `yaml:"use_gradient"`
	IntensityColors  bool    `yaml:"intensity_colors"`
	Interpolation    string  `yaml:"interpolation"`
	GlobalBrightness float64 `yaml:"global_brightness"`

	// Animation
	AnimationSpeed       float64 `yaml:"animation_speed"`
	ScaleAnimationSpeed  bool    `yaml:"scale_animation_speed"`
	TXAnimationDirection string  `yaml:"tx_animation_direction"`
	RXAnimationDirection string  `yaml:"rx_animation_direction"`

	// Layout
	Direction      string  `yaml:"direction"`
	Swap           bool    `yaml:"swap"`
	RXSplitPercent float64 `yaml:"rx_split_percent"`

	// Strobe
	StrobeOnMax      bool    `yaml:"strobe_on_max"`
	StrobeRateHz     float64 `yaml:"strobe_rate_hz"`
	StrobeDurationMS float64 `yaml:"strobe_duration_ms"`
	StrobeColor      string  `yaml:"strobe_color"`

	// Mode selection
	Mode string `yaml:"mode"`

	// Bandwidth source
	MaxGbps      float64 `yaml:"max_gbps"`
	Interface    string  `yaml:"interface"`
	SSHHost      string  `yaml:"ssh_host"`
	SSHUser      string  `yaml:"ssh_user"`
	SampleLogDir string  `yaml:"sample_log_dir"`

	// MIDI
	MIDIDevice         string `yaml:"midi_device"`
	MIDIGradient       bool   `yaml:"midi_gradient"`
	MIDIRandomColors   bool   `yaml:"midi_random_colors"`
	MIDIVelocityColors bool   `yaml:"midi_velocity_colors"`
	MIDIOneToOne       bool   `yaml:"midi_one_to_one"`
	MIDIChannelMode    bool   `yaml:"midi_channel_mode"`

	// Live audio
	AudioDevice         string  `yaml:"audio_device"`
	AudioGain           float64 `yaml:"audio_gain"`
	VU                  bool    `yaml:"vu"`
	PeakHold            bool    `yaml:"peak_hold"`
	PeakHoldDurationMS  float64 `yaml:"peak_hold_duration_ms"`
	PeakHoldColor       string  `yaml:"peak_hold_color"`
	PeakDirectionToggle bool    `yaml:"peak_direction_toggle"`
	FFTWindowSize       int     `yaml:"fft_window_size"`

	// Spectrogram
	Spectrogram                bool    `yaml:"spectrogram"`
	SpectrogramScrollDirection string  `yaml:"spectrogram_scroll_direction"`
	SpectrogramScrollSpeed     float64 `yaml:"spectrogram_scroll_speed"`
	SpectrogramWindowSize      int     `yaml:"spectrogram_window_size"`
	SpectrogramColorMode       string  `yaml:"spectrogram_color_mode"`

	// Relay
	RelayListenIP    string `yaml:"relay_listen_ip"`
	RelayListenPort  int    `yaml:"relay_listen_port"`
	RelayFrameWidth  int    `yaml:"relay_frame_width"`
	RelayFrameHeight int    `yaml:"relay_frame_height"`

	// Webcam
	WebcamListenAddr  string  `yaml:"webcam_listen_addr"`
	WebcamFrameWidth  int     `yaml:"webcam_frame_width"`
	WebcamFrameHeight int     `yaml:"webcam_frame_height"`
	WebcamTargetFPS   float64 `yaml:"webcam_target_fps"`
	WebcamBrightness  float64 `yaml:"webcam_brightness"`

	// Tron / snake
	TronWidth            int     `yaml:"tron_width"`
	TronHeight           int     `yaml:"tron_height"`
	TronSpeedMS          float64 `yaml:"tron_speed_ms"`
	TronResetDelayMS     int     `yaml:"tron_reset_delay_ms"`
	TronLookAhead        int     `yaml:"tron_look_ahead"`
	TronTrailLength      int     `yaml:"tron_trail_length"`
	TronAIAggression     float64 `yaml:"tron_ai_aggression"`
	TronNumPlayers       int     `yaml:"tron_num_players"`
	TronFoodMode         bool    `yaml:"tron_food_mode"`
	TronFoodMaxCount     int     `yaml:"tron_food_max_count"`
	TronFoodTTLSeconds   int     `yaml:"tron_food_ttl_seconds"`
	TronTrailFade        bool    `yaml:"tron_trail_fade"`
	TronPlayerColors     string  `yaml:"tron_player_colors"`
	TronDiagonalMovement bool    `yaml:"tron_diagonal_movement"`

	// Geometry
	GeometryGridWidth           int     `yaml:"geometry_grid_width"`
	GeometryGridHeight          int     `yaml:"geometry_grid_height"`
	GeometryModeSelect          string  `yaml:"geometry_mode_select"`
	GeometryModeDurationSeconds float64 `yaml:"geometry_mode_duration_seconds"`
	GeometryRandomizeOrder      bool    `yaml:"geometry_randomize_order"`

	// Boids (geometry sub-mode)
	BoidCount              int     `yaml:"boid_count"`
	BoidSeparationDistance float64 `yaml:"boid_separation_distance"`
	BoidAlignmentDistance  float64 `yaml:"boid_alignment_distance"`
	BoidCohesionDistance   float64 `yaml:"boid_cohesion_distance"`
	BoidMaxSpeed           float64 `yaml:"boid_max_speed"`
	BoidMaxForce           float64 `yaml:"boid_max_force"`
	BoidPredatorEnabled    bool    `yaml:"boid_predator_enabled"`
	BoidPredatorCount      int     `yaml:"boid_predator_count"`
	BoidPredatorSpeed      float64 `yaml:"boid_predator_speed"`
	BoidAvoidanceDistance  float64 `yaml:"boid_avoidance_distance"`
	BoidChaseForce         float64 `yaml:"boid_chase_force"`

	// Sand
	SandRestart          bool    `yaml:"sand_restart"`
	SandGridWidth        int     `yaml:"sand_grid_width"`
	SandGridHeight       int     `yaml:"sand_grid_height"`
	SandSpawnEnabled     bool    `yaml:"sand_spawn_enabled"`
	SandParticleType     string  `yaml:"sand_particle_type"`
	SandSpawnRate        float64 `yaml:"sand_spawn_rate"`
	SandSpawnRadius      int     `yaml:"sand_spawn_radius"`
	SandSpawnX           int     `yaml:"sand_spawn_x"`
	SandObstaclesEnabled bool    `yaml:"sand_obstacles_enabled"`
	SandObstacleDensity  float64 `yaml:"sand_obstacle_density"`
	SandFireEnabled      bool    `yaml:"sand_fire_enabled"`
	SandColorSand        string  `yaml:"sand_color_sand"`
	SandColorWater       string  `yaml:"sand_color_water"`
	SandColorStone       string  `yaml:"sand_color_stone"`
	SandColorFire        string  `yaml:"sand_color_fire"`
	SandColorSmoke       string  `yaml:"sand_color_smoke"`
	SandColorWood        string  `yaml:"sand_color_wood"`
	SandColorLava        string  `yaml:"sand_color_lava"`

	// Test injection
	TestTX        bool    `yaml:"test_tx"`
	TestRX        bool    `yaml:"test_rx"`
	TestTXPercent float64 `yaml:"test_tx_percent"`
	TestRXPercent float64 `yaml:"test_rx_percent"`
}

/*-------------------------------------------------------------------
 *
 * Name:        default_config
 *
 * Purpose:     The record a fresh installation starts from.
 *
 *--------------------------------------------------------------------*/

func default_config() *led_config_s {
	return &led_config_s{
		TotalLEDs:                 300,
		Matrix2DGradientDirection: "horizontal",
		FPS:                       60,
		AttackMS:                  50,
		DecayMS:                   250,
		InterpolationTimeMS:       1000,
		EnableInterpolation:       true,
		Color:                     "rainbow",
		UseGradient:               true,
		Interpolation:             "linear",
		GlobalBrightness:          1.0,
		TXAnimationDirection:      "left",
		RXAnimationDirection:      "left",
		Direction:                 "mirrored",
		RXSplitPercent:            50,
		StrobeRateHz:              4,
		StrobeDurationMS:          100,
		StrobeColor:               "FFFFFF",
		Mode:                      "bandwidth",
		MaxGbps:                   1,
		Interface:                 "eth0",
		PeakHoldDurationMS:        1000,
		PeakHoldColor:             "FFFFFF",
		FFTWindowSize:             1024,

		SpectrogramScrollDirection: "left",
		SpectrogramScrollSpeed:     30,
		SpectrogramWindowSize:      2048,
		SpectrogramColorMode:       "intensity",

		RelayListenIP:    "0.0.0.0",
		RelayListenPort:  4049,
		RelayFrameWidth:  32,
		RelayFrameHeight: 16,

		WebcamListenAddr:  "0.0.0.0:8788",
		WebcamFrameWidth:  32,
		WebcamFrameHeight: 16,
		WebcamTargetFPS:   30,
		WebcamBrightness:  1.0,

		TronWidth:          32,
		TronHeight:         16,
		TronSpeedMS:        120,
		TronResetDelayMS:   2000,
		TronLookAhead:      3,
		TronAIAggression:   0.5,
		TronNumPlayers:     2,
		TronFoodMode:       true,
		TronFoodMaxCount:   3,
		TronFoodTTLSeconds: 15,
		TronPlayerColors:   "FF0000,00FF00,0000FF,FFFF00,FF00FF,00FFFF,FF8000,8000FF",

		GeometryGridWidth:           32,
		GeometryGridHeight:          16,
		GeometryModeSelect:          "cycle",
		GeometryModeDurationSeconds: 30,

		BoidCount:              40,
		BoidSeparationDistance: 0.05,
		BoidAlignmentDistance:  0.15,
		BoidCohesionDistance:   0.2,
		BoidMaxSpeed:           0.02,
		BoidMaxForce:           0.001,
		BoidPredatorCount:      1,
		BoidPredatorSpeed:      0.025,
		BoidAvoidanceDistance:  0.3,
		BoidChaseForce:         0.001,

		SandGridWidth:       32,
		SandGridHeight:      16,
		SandSpawnEnabled:    true,
		SandParticleType:    "sand",
		SandSpawnRate:       0.5,
		SandSpawnRadius:     2,
		SandSpawnX:          16,
		SandObstacleDensity: 0.15,
		SandFireEnabled:     true,
		SandColorSand:       "C2B280",
		SandColorWater:      "3399FF",
		SandColorStone:      "808080",
		SandColorFire:       "FF4500",
		SandColorSmoke:      "555555",
		SandColorWood:       "8B4513",
		SandColorLava:       "CF1020",

		TestTXPercent: 100,
		TestRXPercent: 100,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (c) validate
 *
 * Purpose:     Enforce the record invariants after a load.
 *
 *--------------------------------------------------------------------*/

func (c *led_config_s) validate() error {
	if c.TotalLEDs <= 0 {
		return fmt.Errorf("%w: total_leds must be positive, got %d", ErrConfigValidation, c.TotalLEDs)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %v", ErrConfigValidation, c.FPS)
	}
	if c.RXSplitPercent < 0 || c.RXSplitPercent > 100 {
		return fmt.Errorf("%w: rx_split_percent %v outside [0,100]", ErrConfigValidation, c.RXSplitPercent)
	}
	if c.GlobalBrightness < 0 || c.GlobalBrightness > 1 {
		return fmt.Errorf("%w: global_brightness %v outside [0,1]", ErrConfigValidation, c.GlobalBrightness)
	}
	if c.AudioGain < -200 || c.AudioGain > 200 {
		return fmt.Errorf("%w: audio_gain %v outside [-200,200]", ErrConfigValidation, c.AudioGain)
	}
	if c.StrobeRateHz > 0 && c.StrobeDurationMS > 1000.0/c.StrobeRateHz {
		return fmt.Errorf("%w: strobe_duration_ms %v exceeds cycle length at %v Hz",
			ErrConfigValidation, c.StrobeDurationMS, c.StrobeRateHz)
	}
	if !valid_mode(c.Mode) {
		return fmt.Errorf("%w: unknown mode %q", ErrConfigValidation, c.Mode)
	}

	return validate_device_overlap(c.effective_devices())
}

func valid_mode(mode string) bool {
	switch mode {
	case "bandwidth", "midi", "live", "relay", "webcam", "tron", "geometry", "sand":
		return true
	}
	return false
}

/*-------------------------------------------------------------------
 *
 * Name:        (c) effective_devices
 *
 * Purpose:     Device list with the legacy single-IP fallback applied.
 *
 * Description:	Installations predating multi-device support only set
 *		wled_ip.  An empty device list plus a non-empty
 *		wled_ip means one device covering the whole strip.
 *
 *--------------------------------------------------------------------*/

func (c *led_config_s) effective_devices() []wled_device_s {
	if len(c.WLEDDevices) > 0 {
		return c.WLEDDevices
	}
	if c.WLEDIP == "" {
		return nil
	}
	return []wled_device_s{{IP: c.WLEDIP, LEDOffset: 0, LEDCount: c.TotalLEDs, Enabled: true}}
}

/*-------------------------------------------------------------------
 *
 * Name:        config_load
 *
 * Purpose:     Read, parse and validate the config file.
 *
 * Errors:	ErrConfigNotFound / ErrConfigParse / ErrConfigValidation.
 *
 *--------------------------------------------------------------------*/

func config_load() (*led_config_s, error) {
	var path, err = config_file_path()
	if err != nil {
		return nil, err
	}
	return config_load_file(path)
}

func config_load_file(path string) (*led_config_s, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg = default_config()
	var dec = yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        config_save
 *
 * Purpose:     Persist atomically: temp file in the same directory,
 *		then rename over the target.
 *
 *--------------------------------------------------------------------*/

func config_save(cfg *led_config_s) error {
	var path, err = config_file_path()
	if err != nil {
		return err
	}
	return config_save_file(cfg, path)
}

func config_save_file(cfg *led_config_s, path string) error {
	var data, err = yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
