// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads session configuration from YAML.
package config
