package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9200
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/fastcos/data/segments.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/fastcos/data/names.bleve"
	}
	if cfg.Scoring.DefaultMode == "" {
		cfg.Scoring.DefaultMode = "cosine"
	}
	if cfg.Scoring.ByteOrder == "" {
		cfg.Scoring.ByteOrder = "big"
	}
	if cfg.Scoring.QueryCacheSize == 0 {
		cfg.Scoring.QueryCacheSize = 1024
	}
	if cfg.Scoring.MaxDimensions == 0 {
		cfg.Scoring.MaxDimensions = 4096
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MaxCandidates == 0 {
		cfg.Search.MaxCandidates = 10000
	}
}
