package core

// Logger is any service that can report application events.
// args may carry errors, maps of extra data or a Person for attribution.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the authenticated caller attached to a log entry.
type Person struct {
	ID    string
	Name  string
	Email string
}
