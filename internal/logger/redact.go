package logger

import "strings"

// Mask replaces sensitive values in log output.
const Mask = "****"

var sensitiveWords = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
}

// IsSensitive reports whether a log key or flag name carries a credential.
func IsSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, w := range sensitiveWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Redact returns a copy of keysAndValues with the value of every sensitive key
// replaced by Mask.
func Redact(keysAndValues []any) []any {
	if len(keysAndValues) == 0 {
		return keysAndValues
	}
	out := make([]any, len(keysAndValues))
	copy(out, keysAndValues)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if ok && IsSensitive(key) {
			out[i+1] = Mask
		}
	}
	return out
}

// RedactArgs returns a copy of a command line with credential flag values
// masked. Both "--password=x" and "--password x" forms are handled, as is
// mongodump's "-p x" short form.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out); i++ {
		arg := out[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !IsSensitive(name) && arg != "-p" {
			continue
		}
		if hasValue {
			out[i] = arg[:strings.IndexByte(arg, '=')+1] + Mask
			continue
		}
		if i+1 < len(out) {
			out[i+1] = Mask
			i++
		}
	}
	return out
}
