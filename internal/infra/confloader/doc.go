// Package confloader loads the server configuration.
//
// Configuration is merged from three sources using koanf, later sources
// overriding earlier ones:
//
//  1. Default values
//  2. YAML configuration file
//  3. Environment variables (KEVA_ prefix)
//
// Command-line flags are applied on top by the caller through LoadMap.
// A watcher built on fsnotify reloads the file when it changes, which
// the server uses to adjust the log level at runtime.
package confloader
