package logger

// LogFatal logs a command-ending failure with its remediation hint, if
// any. Typed errors carry hints that Error() omits; this is where they
// reach the log.
func LogFatal(msg string, err error, hint string) {
	fields := map[string]interface{}{
		"error": err.Error(),
	}
	if hint != "" {
		fields["hint"] = hint
	}
	GetLogger().ErrorWithFields(msg, fields)
}
