package instance

import "os"

// GetID returns the identifier for this process, preferring the explicit
// override, then the host name Cloud Run and Kubernetes assign per replica.
func GetID() string {
	if id := os.Getenv("AURELLE_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "storefront-0"
}
