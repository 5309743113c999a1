// Package logging builds the zap logger shared by the CLI and its
// collaborators. Fields whose keys look sensitive are masked before they
// reach the encoder so detected PII and API keys never land in logs.
package logging

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaskValue replaces the value of sensitive fields.
const MaskValue = "***REDACTED***"

var sensitiveKeys = map[string]bool{
	"authorization": true,
	"api_key":       true,
	"apikey":        true,
	"token":         true,
	"password":      true,
	"secret":        true,
	"value":         true,
	"pii":           true,
	"document":      true,
	"content":       true,
}

// New returns a console logger writing to w. Warn and above are emitted
// unless debug is set.
func New(w io.Writer, debug bool) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(maskingCore{core})
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

type maskingCore struct {
	zapcore.Core
}

func (c maskingCore) With(fields []zapcore.Field) zapcore.Core {
	return maskingCore{c.Core.With(maskFields(fields))}
}

func (c maskingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c maskingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(e, maskFields(fields))
}

func maskFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if isSensitive(f.Key) {
			out[i] = zap.String(f.Key, MaskValue)
			continue
		}
		out[i] = f
	}
	return out
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range []string{"password", "secret", "token", "api_key", "apikey"} {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}
