//go:build !headlessvt_debug

package headlessvt

// assertFail logs the violation and returns, letting the caller clamp.
func assertFail(log Logger, format string, args ...any) {
	log.Errorf("invariant violation: "+format, args...)
}
