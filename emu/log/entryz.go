package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

// EntryZ is a fast log entry with typed fields. Module methods return a nil
// *EntryZ when the module or level is disabled: all methods are nil-safe so a
// disabled log line costs a pointer check per field.
type EntryZ struct {
	lvl   Level
	mod   Module
	msg   string
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) field(key string, typ FieldType) *ZField {
	if z.zfidx == maxZFields {
		return nil
	}
	f := &z.zfbuf[z.zfidx]
	*f = ZField{Key: key, Type: typ}
	z.zfidx++
	return f
}

func (z *EntryZ) String(key, val string) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeString); f != nil {
			f.String = val
		}
	}
	return z
}

func (z *EntryZ) integer(key string, typ FieldType, val uint64) *EntryZ {
	if z != nil {
		if f := z.field(key, typ); f != nil {
			f.Integer = val
		}
	}
	return z
}

func (z *EntryZ) Hex8(key string, val uint8) *EntryZ {
	return z.integer(key, FieldTypeHex8, uint64(val))
}
func (z *EntryZ) Hex16(key string, val uint16) *EntryZ {
	return z.integer(key, FieldTypeHex16, uint64(val))
}
func (z *EntryZ) Hex32(key string, val uint32) *EntryZ {
	return z.integer(key, FieldTypeHex32, uint64(val))
}
func (z *EntryZ) Uint8(key string, val uint8) *EntryZ {
	return z.integer(key, FieldTypeUint, uint64(val))
}
func (z *EntryZ) Uint16(key string, val uint16) *EntryZ {
	return z.integer(key, FieldTypeUint, uint64(val))
}
func (z *EntryZ) Uint32(key string, val uint32) *EntryZ {
	return z.integer(key, FieldTypeUint, uint64(val))
}
func (z *EntryZ) Uint64(key string, val uint64) *EntryZ { return z.integer(key, FieldTypeUint, val) }
func (z *EntryZ) Int(key string, val int) *EntryZ       { return z.integer(key, FieldTypeInt, uint64(val)) }
func (z *EntryZ) Int64(key string, val int64) *EntryZ {
	return z.integer(key, FieldTypeInt, uint64(val))
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeBool); f != nil {
			f.Boolean = val
		}
	}
	return z
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeError); f != nil {
			f.Error = err
		}
	}
	return z
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeDuration); f != nil {
			f.Duration = d
		}
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeStringer); f != nil {
			f.Interface = s
		}
	}
	return z
}

func (z *EntryZ) Blob(key string, buf []byte) *EntryZ {
	if z != nil {
		if f := z.field(key, FieldTypeBlob); f != nil {
			f.Blob = buf
		}
	}
	return z
}

// End emits the entry. The entry must not be used afterwards.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	addContexts(z)

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		f := &z.zfbuf[i]
		fields[f.Key] = f.Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)

	lvl, msg := z.lvl, z.msg
	z.zfbuf = [maxZFields]ZField{}
	entryPool.Put(z)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case PanicLevel:
		entry.Panic(msg)
	}
}
