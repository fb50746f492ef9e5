package log

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-faster/jx"
	"gopkg.in/Sirupsen/logrus.v0"
)

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Disable discards all log output.
func Disable() {
	logrus.SetOutput(io.Discard)
}

// SetFormat selects the log entries format, either "text" or "json".
func SetFormat(format string) error {
	switch format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
	case "json":
		logrus.SetFormatter(&JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// JSONFormatter writes one JSON object per entry, with the time, level and
// message followed by the entry fields in alphabetical order.
type JSONFormatter struct {
	TimestampFormat string
}

func (f *JSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsfmt := f.TimestampFormat
	if tsfmt == "" {
		tsfmt = "2006-01-02T15:04:05.000Z07:00"
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("time")
	e.Str(entry.Time.Format(tsfmt))
	e.FieldStart("level")
	e.Str(entry.Level.String())
	e.FieldStart("msg")
	e.Str(entry.Message)
	for _, k := range keys {
		e.FieldStart(k)
		encodeValue(&e, entry.Data[k])
	}
	e.ObjEnd()

	return append(e.Bytes(), '\n'), nil
}

func encodeValue(e *jx.Encoder, v any) {
	switch v := v.(type) {
	case string:
		e.Str(v)
	case bool:
		e.Bool(v)
	case int:
		e.Int(v)
	case int64:
		e.Int64(v)
	case uint8:
		e.UInt8(v)
	case uint16:
		e.UInt16(v)
	case uint32:
		e.UInt32(v)
	case uint64:
		e.UInt64(v)
	case error:
		e.Str(v.Error())
	case fmt.Stringer:
		e.Str(v.String())
	case nil:
		e.Null()
	default:
		e.Str(fmt.Sprint(v))
	}
}
