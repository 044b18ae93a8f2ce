package config

const (
	defaultConfigPath                 = "~/.config/sapsdispatch/config.toml"
	defaultDataDir                    = "~/.local/share/sapsdispatch"
	defaultLogDir                     = "~/.local/share/sapsdispatch/logs"
	defaultCatalogFile                = "catalog.db"
	defaultCatalogBusyTimeoutMS       = 5000
	defaultDispatchWorkers            = 32
	defaultDispatchQueueSize          = 256
	defaultDigestScript               = "./scripts/get_digest"
	defaultDigestTimeoutSeconds       = 60
	defaultAvailabilityBreaker        = true
	defaultAvailabilityMaxFailures    = 5
	defaultAvailabilityBreakerOpenSec = 30
	defaultLogFormat                  = "console"
	defaultLogLevel                   = "info"
	defaultLogRetentionDays           = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Catalog: Catalog{
			BusyTimeoutMS: defaultCatalogBusyTimeoutMS,
		},
		Dispatch: Dispatch{
			Workers:   defaultDispatchWorkers,
			QueueSize: defaultDispatchQueueSize,
		},
		Digest: Digest{
			Script:         defaultDigestScript,
			TimeoutSeconds: defaultDigestTimeoutSeconds,
		},
		Availability: Availability{
			BreakerEnabled:     defaultAvailabilityBreaker,
			BreakerMaxFailures: defaultAvailabilityMaxFailures,
			BreakerOpenSeconds: defaultAvailabilityBreakerOpenSec,
		},
		Datasets: defaultDatasets(),
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// defaultDatasets lists the Landsat missions the catalog indexes.
func defaultDatasets() []Dataset {
	landsat5End := 2013
	return []Dataset{
		{Name: "landsat_5", StartYear: 1984, EndYear: &landsat5End},
		{Name: "landsat_7", StartYear: 1999},
		{Name: "landsat_8", StartYear: 2013},
	}
}
