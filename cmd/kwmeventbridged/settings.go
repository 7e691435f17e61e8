/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package main

import (
	"github.com/spf13/cobra"
)

// flagSettings resolves a setting from command line flags, falling back to
// the configuration file value when the flag was not given explicitly. The
// flag default applies when neither is set.
type flagSettings struct {
	cmd *cobra.Command
}

func (s *flagSettings) String(name string, fileValue string) string {
	value, _ := s.cmd.Flags().GetString(name)
	if !s.cmd.Flags().Changed(name) && fileValue != "" {
		return fileValue
	}
	return value
}

func (s *flagSettings) StringArray(name string, fileValue []string) []string {
	value, _ := s.cmd.Flags().GetStringArray(name)
	if !s.cmd.Flags().Changed(name) && len(fileValue) > 0 {
		return fileValue
	}
	return value
}

func (s *flagSettings) Int(name string, fileValue int) int {
	value, _ := s.cmd.Flags().GetInt(name)
	if !s.cmd.Flags().Changed(name) && fileValue != 0 {
		return fileValue
	}
	return value
}

func (s *flagSettings) Bool(name string, fileValue bool) bool {
	value, _ := s.cmd.Flags().GetBool(name)
	if !s.cmd.Flags().Changed(name) && fileValue {
		return true
	}
	return value
}
