package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (S100-S199)

	"S100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No statekit.yaml was found. Defaults are used unless a file is given with --config.",
	},
	"S101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A value in statekit.yaml is outside its allowed range.",
	},
	"S102": {
		Category: CategoryConfig,
		Message:  "Configuration parse error",
		Detail:   "statekit.yaml is not valid YAML or contains unknown fields.",
	},

	// Cache (S200-S299)

	"S200": {
		Category: CategoryCache,
		Message:  "Cache backend failed to open",
		Detail:   "The configured key-value cache could not be opened. Stores need it to persist settings, the auth token and the user profile.",
	},
	"S201": {
		Category: CategoryCache,
		Message:  "Cache operation failed",
		Detail:   "A read or write against the key-value cache failed. In-memory state was kept.",
	},

	// Authentication (S300-S399)

	"S300": {
		Category: CategoryAuth,
		Message:  "Authentication failed",
		Detail:   "The authentication backend rejected the credentials.",
	},
	"S301": {
		Category: CategoryAuth,
		Message:  "Invalid authentication setup",
		Detail:   "The JWT backend needs a signing secret of at least 16 bytes and at least one user.",
	},

	// Command line (S400-S499)

	"S400": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		Detail:   "The command received a value it does not accept.",
	},
	"S401": {
		Category: CategoryCLI,
		Message:  "Inspector failed",
		Detail:   "The HTTP inspector stopped with an error.",
	},

	// Stores (S500-S599)

	"S500": {
		Category: CategoryStore,
		Message:  "Unknown store",
		Detail:   "No store is defined under this name.",
	},
	"S501": {
		Category: CategoryStore,
		Message:  "Action failed",
		Detail:   "The store action returned an error.",
	},
}

// Codes returns all registered error codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
