// Package config provides Lua configuration parsing and credential loading
// for the UHA release toolkit.
//
// It uses gopher-lua for safe, sandboxed Lua execution. The toolkit config
// (uha.lua) is parsed once at process start into an explicit Config struct
// that is passed into each component; no package outside config reads the
// environment or the secrets directory.
package config
