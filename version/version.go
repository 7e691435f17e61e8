/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package version

var (
	// Version specifies the version string of this build.
	Version = "0.0.0-dev"

	// BuildDate is the build date of this build.
	BuildDate = "0"
)
