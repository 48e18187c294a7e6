package config

// DefaultConfig returns the built-in defaults. They match a developer
// running OSIM locally with `yarn run dev`.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			OSIMURL:         "https://localhost:5173/",
			TimeoutSecs:     10,
			PageTimeoutSecs: 15,
			SeedPath:        "features/testdata/seed.yaml",
		},
		Browser: BrowserConfig{
			Backend:     "cdp",
			Headless:    true,
			BrowserName: "firefox",
			Width:       1920,
			Height:      1080,
		},
		Store: StoreConfig{
			Path: "./osim-e2e-state.json",
		},
		DevServer: DevServerConfig{
			Command:        "yarn run dev",
			URL:            "https://localhost:5173/",
			ReadyTimeoutMs: 10000,
			PollIntervalMs: 500,
		},
		Artifacts: ArtifactsConfig{
			Dir:       "~/.osim-e2e/artifacts",
			OnFailure: true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: "redact",
		},
		Run: RunConfig{
			Paths:  []string{"features"},
			Format: "pretty",
			Strict: true,
		},
	}
}
