package providers

import "strings"

// ConfigString returns the trimmed string value for key from def.Config or a fallback.
func ConfigString(def Definition, key, fallback string) string {
	if def.Config != nil {
		if raw, ok := def.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
)

// Headers overlays the provider's configured request headers on base (skips empty values).
func Headers(def Definition, base map[string]string) map[string]string {
	headers := make(map[string]string, len(base)+4)
	for k, v := range base {
		if strings.TrimSpace(v) != "" {
			headers[k] = v
		}
	}

	if v := ConfigString(def, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(def, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(def, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	if v := ConfigString(def, ConfigCacheControlKey, ""); v != "" {
		headers["Cache-Control"] = v
	}

	return headers
}
