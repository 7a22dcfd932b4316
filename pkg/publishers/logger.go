package publishers

// Logger defines the logging surface publishers rely on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// deliveryFields is the structured payload logged for one delivery attempt.
func deliveryFields(id string, evt Event, err error) map[string]any {
	fields := map[string]any{
		"publisher_id": id,
		"sitename":     evt.Sitename,
		"action":       evt.Action,
		"files":        len(evt.Files),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	return fields
}
