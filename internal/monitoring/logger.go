package monitoring

// Logf is the package-level printf hook used by infrastructure code (db
// migrations, schema checks). It writes to the diag stream unless replaced
// with SetLogger.
var Logf func(format string, v ...interface{}) = Diagf

// SetLogger replaces the package hook. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
