package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDotEnv parses a .env file into key/value pairs. It understands
// KEY=value, an optional "export " prefix, single or double quoted values,
// full-line comments and " #" trailing comments on unquoted values.
// Nothing is exported to the process environment.
func LoadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		result[key] = dotEnvValue(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return result, nil
}

func dotEnvValue(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return value
}

// LoadEnvFiles loads several .env files, later files overriding earlier
// ones. Empty paths are ignored.
func LoadEnvFiles(paths ...string) (map[string]string, error) {
	result := make(map[string]string)
	for _, p := range paths {
		if p == "" {
			continue
		}
		vars, err := LoadDotEnv(p)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			result[k] = v
		}
	}
	return result, nil
}

// SystemEnv returns dotenv overlaid with the process environment. Variables
// set in the process win over the file.
func SystemEnv(dotenv map[string]string) map[string]string {
	result := make(map[string]string, len(dotenv))
	for k, v := range dotenv {
		result[k] = v
	}
	for _, e := range os.Environ() {
		if key, value, ok := strings.Cut(e, "="); ok && key != "" {
			result[key] = value
		}
	}
	return result
}
