package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component". Module
// routers get a component-tagged logger at wiring time so every record names
// the module it came from; tenant and request ids arrive through the context
// extractors instead of per-call attrs.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
