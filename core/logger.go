package core

// Logger logs messages along with optional args.
// args may hold errors, map[string]interface{} extras and the concerned user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
