// SPDX-License-Identifier: MPL-2.0

// Package config loads kustrace configuration. Values resolve from, in
// decreasing precedence: KUSTRACE_* environment variables, a config file
// (an explicit --config path, else the platform config dir, else a local
// .kustrace.yaml), and built-in defaults. A missing file is not an error.
package config
