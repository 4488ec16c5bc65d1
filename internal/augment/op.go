package augment

// Op identifies one capability of a transform library.
type Op int

const (
	Identity Op = iota
	AutoContrast
	Equalize
	Posterize
	Solarize
	Color
	Contrast
	Brightness
	Sharpness
	Rotate
	TranslateX
	TranslateY
	ShearX
	ShearY

	opCount
)

var opNames = [opCount]string{
	Identity:     "Identity",
	AutoContrast: "AutoContrast",
	Equalize:     "Equalize",
	Posterize:    "Posterize",
	Solarize:     "Solarize",
	Color:        "Color",
	Contrast:     "Contrast",
	Brightness:   "Brightness",
	Sharpness:    "Sharpness",
	Rotate:       "Rotate",
	TranslateX:   "TranslateX",
	TranslateY:   "TranslateY",
	ShearX:       "ShearX",
	ShearY:       "ShearY",
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, opCount)
	for op, name := range opNames {
		m[name] = Op(op)
	}
	return m
}()

func (o Op) String() string {
	if !o.Valid() {
		return "Op(?)"
	}
	return opNames[o]
}

// Valid reports whether o is one of the known operations.
func (o Op) Valid() bool {
	return o >= 0 && o < opCount
}

// Ops returns every known operation in declaration order.
func Ops() []Op {
	ops := make([]Op, opCount)
	for i := range ops {
		ops[i] = Op(i)
	}
	return ops
}

// ParseOp resolves a capability name. Unknown names fail with *DispatchError.
func ParseOp(name string) (Op, error) {
	op, ok := opByName[name]
	if !ok {
		return 0, &DispatchError{Name: name}
	}
	return op, nil
}

// MarshalText encodes the op as its capability name.
func (o Op) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, &DispatchError{Name: o.String()}
	}
	return []byte(o.String()), nil
}

// UnmarshalText decodes a capability name.
func (o *Op) UnmarshalText(text []byte) error {
	op, err := ParseOp(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
