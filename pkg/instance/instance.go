package instance

import "os"

// GetID identifies the running process in logs: the platform dyno name when
// present, else the host name.
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
