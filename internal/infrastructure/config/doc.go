// Package config loads and validates Homelink Core configuration.
//
// Configuration comes from a YAML file with environment variable
// overrides (HOMELINK_* pattern). Besides infrastructure settings
// (database, MQTT, InfluxDB, logging) it carries the devices section:
// persisted per-device configuration overrides, including the LAN
// decryption keys consulted during registration and just-in-time
// discovery of encrypted broadcasts.
package config
