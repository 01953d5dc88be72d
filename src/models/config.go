package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Engine    MEngineConfig    `yaml:"engine"`
	Broadcast MBroadcastConfig `yaml:"broadcast"`
}

type MEngineConfig struct {
	PriceFloor float64         `yaml:"price_floor"`
	SeedJitter float64         `yaml:"seed_jitter"`
	Symbols    []MSymbolConfig `yaml:"symbols"`
}

type MSymbolConfig struct {
	Symbol    string  `yaml:"symbol"`
	BasePrice float64 `yaml:"base_price"`
}

type MBroadcastConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
