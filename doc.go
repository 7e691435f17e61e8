/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

// Package kwmeventbridge forwards remote participant track notifications of
// a real-time video session to event consumers.
package kwmeventbridge
