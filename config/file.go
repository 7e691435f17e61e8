/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v3"
)

// File holds the settings which can be provided with a YAML configuration
// file. Command line flags take precedence.
type File struct {
	Listen      string   `yaml:"listen"`
	Iss         string   `yaml:"iss"`
	Insecure    bool     `yaml:"insecure"`
	LogLevel    string   `yaml:"log_level"`
	UpstreamURL []string `yaml:"upstream_url"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"`
	} `yaml:"metrics"`

	Events struct {
		QueueSize         int    `yaml:"queue_size"`
		QueuePolicy       string `yaml:"queue_policy"`
		ConsumerQueueSize int    `yaml:"consumer_queue_size"`
	} `yaml:"events"`

	ICE struct {
		Interfaces   []string `yaml:"interfaces"`
		NetworkTypes []string `yaml:"network_types"`
		UDPPortRange string   `yaml:"udp_port_range"`
		Lite         bool     `yaml:"lite"`
	} `yaml:"ice"`
}

// LoadFile reads and parses the YAML configuration file at the provided path.
func LoadFile(fn string) (*File, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseFile(data)
}

// ParseFile parses the provided YAML configuration data.
func ParseFile(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return f, nil
}
