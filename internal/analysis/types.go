package analysis

// Kind classifies the operand of a const instruction.
type Kind int

const (
	KindNone     Kind = iota // not a const instruction
	KindLiteral              // plain integer
	KindString               // pointer into the literal segment
	KindData                 // pointer into the data segment
	KindFunction             // call target inside the image
	KindSyscall              // negative call target naming a host function
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindString:
		return "string"
	case KindData:
		return "data"
	case KindFunction:
		return "function"
	case KindSyscall:
		return "syscall"
	default:
		return "none"
	}
}

// IsCall reports whether the operand is a call target of either kind.
func (k Kind) IsCall() bool { return k == KindFunction || k == KindSyscall }

// Names resolves addresses to symbol names. A miss only suppresses annotation.
type Names interface {
	// Function names the function whose enter instruction has this ordinal.
	Function(ordinal int32) (string, bool)
	// Syscall names a negative call target.
	Syscall(id int32) (string, bool)
	// Data names a data or literal segment address.
	Data(addr int32) (string, bool)
}

// noNames is used when the caller has no symbol source.
type noNames struct{}

func (noNames) Function(int32) (string, bool) { return "", false }
func (noNames) Syscall(int32) (string, bool)  { return "", false }
func (noNames) Data(int32) (string, bool)     { return "", false }
