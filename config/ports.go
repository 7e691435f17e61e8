/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseUDPPortRange parses a port range in format min:max. Either side may
// be omitted, defaulting to 10000 and 65535.
func ParseUDPPortRange(value string) ([2]uint16, error) {
	minMax := strings.SplitN(value, ":", 2)
	portRange := [2]uint16{10000, ^uint16(0)}
	if minMax[0] != "" {
		minPort, err := strconv.ParseUint(minMax[0], 10, 16)
		if err != nil {
			return portRange, fmt.Errorf("invalid min port value: %w", err)
		}
		portRange[0] = uint16(minPort)
	}
	if len(minMax) > 1 && minMax[1] != "" {
		maxPort, err := strconv.ParseUint(minMax[1], 10, 16)
		if err != nil {
			return portRange, fmt.Errorf("invalid max port value: %w", err)
		}
		portRange[1] = uint16(maxPort)
	}
	if portRange[1] <= portRange[0] {
		return portRange, fmt.Errorf("max port value must be higher than min port %d", portRange[0])
	}
	return portRange, nil
}
