package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InitRegs initializes the Reg8, Mem and Device fields of the struct pointed
// to by data, according to their "hwio" struct tag. Supported options:
//
//	offset=0x12   offset of the register within its bank (required by MapBank)
//	bank=N        bank number, default 0
//	size=N        Mem: physical size; Device: size of the handled range
//	vsize=N       Mem: mapped size, Data is mirrored over it
//	reset=N       Reg8: initial value
//	rwmask=N      Reg8: writable bits (others are read-only)
//	readonly      reads only, writes are ignored
//	writeonly     writes only, reads return 0
//	rcb, wcb      bind Read<NAME>/Write<NAME> methods of data, where NAME is
//	              the upper-cased field name
//	pcb[=Method]  bind Peek<NAME> (or the named method) as peek callback
func InitRegs(data any) error {
	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: InitRegs wants a pointer to struct, got %T", data)
	}
	sv := val.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		sf := st.Field(i)
		tag, ok := sf.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", sf.Name, err)
		}
		ptr := sv.Field(i).Addr().Interface()
		switch r := ptr.(type) {
		case *Reg8:
			err = initReg8(val, sf.Name, r, opts)
		case *Mem:
			err = initMem(val, sf.Name, r, opts)
		case *Device:
			err = initDevice(val, sf.Name, r, opts)
		default:
			err = fmt.Errorf("unsupported type %T", ptr)
		}
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", sf.Name, err)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

type tagOpts map[string]string

func parseTag(tag string) (tagOpts, error) {
	opts := make(tagOpts)
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")
		switch key {
		case "offset", "bank", "size", "vsize", "reset", "rwmask",
			"readonly", "writeonly", "rcb", "wcb", "pcb":
		default:
			return nil, fmt.Errorf("unknown option %q", key)
		}
		opts[key] = val
	}
	if _, ro := opts["readonly"]; ro {
		if _, wo := opts["writeonly"]; wo {
			return nil, fmt.Errorf("readonly and writeonly are exclusive")
		}
	}
	return opts, nil
}

func (o tagOpts) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o tagOpts) uint(key string, bits int) (uint64, bool, error) {
	s, ok := o[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, false, fmt.Errorf("option %s: %w", key, err)
	}
	return v, true, nil
}

func (o tagOpts) flags() RWFlags {
	switch {
	case o.has("readonly"):
		return ReadOnlyFlag
	case o.has("writeonly"):
		return WriteOnlyFlag
	}
	return ReadWriteFlag
}

// method returns the method of obj bound to callback option key (rcb, wcb,
// pcb), or an invalid Value if the option is absent.
func (o tagOpts) method(obj reflect.Value, key, prefix, field string) (reflect.Value, error) {
	name, ok := o[key]
	if !ok {
		return reflect.Value{}, nil
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}
	m := obj.MethodByName(name)
	if !m.IsValid() {
		return m, fmt.Errorf("missing callback method %s", name)
	}
	return m, nil
}

func initReg8(obj reflect.Value, field string, r *Reg8, opts tagOpts) error {
	r.Name = field
	r.Flags = opts.flags()
	if v, ok, err := opts.uint("reset", 8); err != nil {
		return err
	} else if ok {
		r.Value = uint8(v)
	}
	if v, ok, err := opts.uint("rwmask", 8); err != nil {
		return err
	} else if ok {
		r.RoMask = ^uint8(v)
	}

	var ok bool
	if m, err := opts.method(obj, "rcb", "Read", field); err != nil {
		return err
	} else if m.IsValid() {
		if r.ReadCb, ok = m.Interface().(func(uint8) uint8); !ok {
			return fmt.Errorf("invalid read callback signature %s", m.Type())
		}
	}
	if m, err := opts.method(obj, "pcb", "Peek", field); err != nil {
		return err
	} else if m.IsValid() {
		if r.PeekCb, ok = m.Interface().(func(uint8) uint8); !ok {
			return fmt.Errorf("invalid peek callback signature %s", m.Type())
		}
	}
	if m, err := opts.method(obj, "wcb", "Write", field); err != nil {
		return err
	} else if m.IsValid() {
		if r.WriteCb, ok = m.Interface().(func(uint8, uint8)); !ok {
			return fmt.Errorf("invalid write callback signature %s", m.Type())
		}
	}
	return nil
}

func initMem(obj reflect.Value, field string, m *Mem, opts tagOpts) error {
	m.Name = field
	size, ok, err := opts.uint("size", 32)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("size is required for Mem")
	}
	m.Data = make([]byte, size)
	m.VSize = int(size)
	if v, ok, err := opts.uint("vsize", 32); err != nil {
		return err
	} else if ok {
		m.VSize = int(v)
	}
	if opts.has("readonly") {
		m.Flags = MemFlagReadOnly
	}
	if cb, err := opts.method(obj, "wcb", "Write", field); err != nil {
		return err
	} else if cb.IsValid() {
		if m.WriteCb, ok = cb.Interface().(func(uint16, uint8)); !ok {
			return fmt.Errorf("invalid write callback signature %s", cb.Type())
		}
	}
	return nil
}

func initDevice(obj reflect.Value, field string, d *Device, opts tagOpts) error {
	d.Name = field
	d.Flags = opts.flags()
	size, ok, err := opts.uint("size", 32)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("size is required for Device")
	}
	d.Size = int(size)

	if m, err := opts.method(obj, "rcb", "Read", field); err != nil {
		return err
	} else if m.IsValid() {
		if d.ReadCb, ok = m.Interface().(func(uint16) uint8); !ok {
			return fmt.Errorf("invalid read callback signature %s", m.Type())
		}
	}
	if m, err := opts.method(obj, "pcb", "Peek", field); err != nil {
		return err
	} else if m.IsValid() {
		if d.PeekCb, ok = m.Interface().(func(uint16) uint8); !ok {
			return fmt.Errorf("invalid peek callback signature %s", m.Type())
		}
	}
	if m, err := opts.method(obj, "wcb", "Write", field); err != nil {
		return err
	} else if m.IsValid() {
		if d.WriteCb, ok = m.Interface().(func(uint16, uint8)); !ok {
			return fmt.Errorf("invalid write callback signature %s", m.Type())
		}
	}
	return nil
}

type bankReg struct {
	offset uint16
	ptr    any
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	val := reflect.ValueOf(bank)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: bank must be a pointer to struct, got %T", bank)
	}
	sv := val.Elem()
	st := sv.Type()

	var regs []bankReg
	for i := range st.NumField() {
		tag, ok := st.Field(i).Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %w", st.Field(i).Name, err)
		}
		off, ok, err := opts.uint("offset", 16)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		num, _, err := opts.uint("bank", 8)
		if err != nil {
			return nil, err
		}
		if int(num) != bankNum {
			continue
		}
		regs = append(regs, bankReg{offset: uint16(off), ptr: sv.Field(i).Addr().Interface()})
	}
	return regs, nil
}
