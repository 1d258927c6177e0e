package camera

// Named capture presets selectable from the panel and the CLI.
const (
	PresetDefault = "default"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// presetTable keeps PresetNames in declaration order.
var presetTable = []struct {
	name string
	cfg  func() Config
}{
	{PresetDefault, DefaultConfig},
	{Preset720p, hd720Config},
	{Preset1080p, hd1080Config},
}

// PresetNames lists the selectable preset names.
func PresetNames() []string {
	names := make([]string, len(presetTable))
	for i, p := range presetTable {
		names[i] = p.name
	}
	return names
}

// GetPreset returns the named preset, or nil when the name is unknown.
func GetPreset(name string) *Config {
	for _, p := range presetTable {
		if p.name == name {
			cfg := p.cfg()
			return &cfg
		}
	}
	return nil
}

// hd720Config balances upload size against face detail.
func hd720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// hd1080Config maximizes face detail at a lower frame rate.
func hd1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	cfg.Framerate = 10
	return cfg
}
