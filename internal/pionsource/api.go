/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package pionsource

import (
	"fmt"
	"strings"

	"github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus"

	"stash.kopano.io/kwm/kwmeventbridge/config"
)

// NewSettingEngine creates a pion SettingEngine from the ICE settings of the
// provided configuration.
func NewSettingEngine(cfg *config.Config, logger logrus.FieldLogger, verbose bool) (*webrtc.SettingEngine, error) {
	s := webrtc.SettingEngine{
		LoggerFactory: &loggerFactory{logger, verbose},
	}
	s.SetTrickle(false)
	s.SetLite(cfg.ICELite)

	if len(cfg.ICEInterfaces) > 0 {
		logger.WithField("interfaces", cfg.ICEInterfaces).Debugln("enabling ICE interface filter")
		iceInterfaceFilterMap := make(map[string]bool)
		for _, ifName := range cfg.ICEInterfaces {
			iceInterfaceFilterMap[ifName] = true
		}
		s.SetInterfaceFilter(func(i string) bool {
			return iceInterfaceFilterMap[i]
		})
	}

	if len(cfg.ICENetworkTypes) > 0 {
		candidateTypes, err := ParseNetworkTypes(cfg.ICENetworkTypes)
		if err != nil {
			return nil, err
		}
		logger.WithField("types", candidateTypes).Debugln("enabling limit of ICE candidate network type")
		s.SetNetworkTypes(candidateTypes)
	}

	if cfg.ICEEphemeralUDPPortRange[1] != 0 {
		logger.WithFields(logrus.Fields{
			"min": cfg.ICEEphemeralUDPPortRange[0],
			"max": cfg.ICEEphemeralUDPPortRange[1],
		}).Debugln("limiting ICE ports")
		if err := s.SetEphemeralUDPPortRange(cfg.ICEEphemeralUDPPortRange[0], cfg.ICEEphemeralUDPPortRange[1]); err != nil {
			return nil, fmt.Errorf("failed to set ICE port range: %w", err)
		}
	}

	return &s, nil
}

// ParseNetworkTypes converts the provided network type names.
func ParseNetworkTypes(names []string) ([]webrtc.NetworkType, error) {
	candidateTypes := make([]webrtc.NetworkType, 0, len(names))
	for _, networkTypeString := range names {
		var nt webrtc.NetworkType
		switch strings.ToLower(networkTypeString) {
		case "udp4":
			nt = webrtc.NetworkTypeUDP4
		case "udp6":
			nt = webrtc.NetworkTypeUDP6
		case "tcp4":
			nt = webrtc.NetworkTypeTCP4
		case "tcp6":
			nt = webrtc.NetworkTypeTCP6
		default:
			return nil, fmt.Errorf("unsupported ICE network type: %v", networkTypeString)
		}
		candidateTypes = append(candidateTypes, nt)
	}
	return candidateTypes, nil
}

// NewAPI creates a pion API with default codecs and the settings of the
// provided configuration.
func NewAPI(cfg *config.Config, logger logrus.FieldLogger, verbose bool) (*webrtc.API, error) {
	s, err := NewSettingEngine(cfg, logger, verbose)
	if err != nil {
		return nil, err
	}

	m := webrtc.MediaEngine{}
	m.RegisterDefaultCodecs()

	return webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithSettingEngine(*s)), nil
}
