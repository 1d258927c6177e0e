package camera

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if problems := cfg.Validate(); len(problems) > 0 {
		t.Errorf("DefaultConfig() invalid: %v", problems)
	}
	if cfg.Quality != 90 {
		t.Errorf("Quality = %d, want 90", cfg.Quality)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"huge height", func(c *Config) { c.Height = 10000 }, true},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, true},
		{"quality zero", func(c *Config) { c.Quality = 0 }, true},
		{"quality too high", func(c *Config) { c.Quality = 101 }, true},
		{"full hd", func(c *Config) { *c = *GetPreset(Preset1080p) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			problems := cfg.Validate()
			if gotErr := len(problems) > 0; gotErr != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", problems, tt.wantErr)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("GetPreset(%q) = nil", name)
		}
		if problems := cfg.Validate(); len(problems) > 0 {
			t.Errorf("preset %q invalid: %v", name, problems)
		}
	}

	if GetPreset("nope") != nil {
		t.Error("GetPreset with unknown name should return nil")
	}
}

func TestManagerUpdateConfig(t *testing.T) {
	m := NewManager()

	var applied []Config
	m.OnConfigChange = func(cfg Config) error {
		applied = append(applied, cfg)
		return nil
	}

	if err := m.UpdateConfig(map[string]interface{}{"preset": "720p", "quality": float64(75)}); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}

	got := m.GetConfig()
	if got.Width != 1280 || got.Height != 720 {
		t.Errorf("dimensions = %dx%d, want 1280x720", got.Width, got.Height)
	}
	if got.Quality != 75 {
		t.Errorf("Quality = %d, want 75", got.Quality)
	}
	if len(applied) != 1 {
		t.Errorf("OnConfigChange called %d times, want 1", len(applied))
	}

	if err := m.UpdateConfig(map[string]interface{}{"preset": "nope"}); err == nil {
		t.Error("UpdateConfig with unknown preset should fail")
	}
	if err := m.UpdateConfig(map[string]interface{}{"quality": float64(0)}); err == nil {
		t.Error("UpdateConfig with invalid quality should fail")
	}
	if err := m.UpdateConfig(map[string]interface{}{"contrast": float64(5)}); err == nil {
		t.Error("UpdateConfig with unknown key should fail")
	}
	if err := m.UpdateConfig(map[string]interface{}{"width": "wide"}); err == nil {
		t.Error("UpdateConfig with non-numeric value should fail")
	}

	got = m.GetConfig()
	if got.Quality != 75 {
		t.Errorf("Quality after rejected updates = %d, want 75", got.Quality)
	}
}
