//go:build headlessvt_debug

package headlessvt

import "fmt"

// assertFail panics in debug builds, per spec §7's "in debug mode they
// trigger assertions".
func assertFail(log Logger, format string, args ...any) {
	log.Errorf("invariant violation: "+format, args...)
	panic(fmt.Sprintf("headlessvt: invariant violation: "+format, args...))
}
