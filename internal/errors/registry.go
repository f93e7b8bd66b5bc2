package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (N001-N019)
	// ============================================

	"N001": {
		Category:   CategoryConfig,
		Message:    "Navigation store not provided",
		Detail:     "The coordinator was used without the shared navigation state store. Every caller must share the one store created for the session.",
		Suggestion: "Create one navstate.Store per session and pass it to navigate.New, or attach it with navstate.WithStore.",
	},
	"N002": {
		Category:   CategoryConfig,
		Message:    "Router capability not provided",
		Detail:     "The coordinator needs a router to perform push, replace, back, forward and refresh.",
		Suggestion: "Pass a navigate.Router implementation to navigate.New.",
	},
	"N003": {
		Category:   CategoryConfig,
		Message:    "Location capability not provided",
		Detail:     "Completion detection compares the current location with the requested target and the origin.",
		Suggestion: "Pass a location.Capability (for example location.NewMemory) to navigate.New.",
	},
	"N004": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field could not be parsed or is out of range.",
	},
	"N005": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
		Detail:   "The configuration file exists but could not be read or decoded.",
	},
	"N006": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Run 'navflow config --init' to write a default navflow.json, or omit --config to use the defaults.",
	},

	// ============================================
	// Navigation Errors (N020-N039)
	// ============================================

	"N020": {
		Category: CategoryNavigation,
		Message:  "Navigation failed",
		Detail:   "The router capability returned an error. The loading state was cleared; the destination may not have been reached.",
	},
	"N021": {
		Category: CategoryNavigation,
		Message:  "Router panicked",
		Detail:   "The router capability panicked during a navigation call. The panic was recovered and the loading state was cleared.",
	},
	"N022": {
		Category: CategoryNavigation,
		Message:  "Navigation timed out",
		Detail:   "No completion signal arrived within the settle timeout, so the loading state was cleared.",
	},

	// ============================================
	// Transport Errors (N060-N079)
	// ============================================

	"N060": {
		Category: CategoryTransport,
		Message:  "WebSocket connection failed",
		Detail:   "Unable to establish or keep the WebSocket connection to the browser client.",
	},
	"N061": {
		Category: CategoryTransport,
		Message:  "Invalid client message",
		Detail:   "The browser client sent a message that could not be decoded.",
	},
	"N062": {
		Category: CategoryTransport,
		Message:  "Client disconnected",
		Detail:   "The browser client went away while a router command was waiting for its acknowledgement.",
	},
	"N063": {
		Category: CategoryTransport,
		Message:  "Client rejected command",
		Detail:   "The browser client reported an error while executing a router command.",
	},

	// ============================================
	// CLI Errors (N080-N099)
	// ============================================

	"N080": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The navflow bridge server stopped with an error.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
