// Package config handles loading and validating audio monitor configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading an optional .env file
//   - Overriding with AUDIOMON_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/audiomon.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Monitor.Subsystem)
package config
