package debugflow

// Logger interface for test run operations
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noOpLogger struct{}

func (noOpLogger) Debugf(format string, args ...interface{}) {}
func (noOpLogger) Infof(format string, args ...interface{})  {}
func (noOpLogger) Errorf(format string, args ...interface{}) {}
