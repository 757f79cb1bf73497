// Package config loads the optional yapi configuration file.
//
// The file is JSON and is looked up in the working directory under the
// names listed in ConfigFilenames. Command-line flags are merged on top
// with Merge; unset pointer booleans keep the file's value.
package config
