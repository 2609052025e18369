package env

import "os"

// Export applies vars to the current process environment, so a subshell
// spawned via os/exec inherits them.
func Export(vars map[string]string) error {
	for k, v := range vars {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
