package object

// Err is a PLRM error name raised by container, stack, or VM operations.
// The interpreter layer wraps it with the offending command before it
// reaches the PostScript error machinery.
type Err string

func (e Err) Error() string { return string(e) }

const (
	ErrStackUnderflow     Err = "stackunderflow"
	ErrStackOverflow      Err = "stackoverflow"
	ErrDictStackUnderflow Err = "dictstackunderflow"
	ErrDictStackOverflow  Err = "dictstackoverflow"
	ErrExecStackOverflow  Err = "execstackoverflow"
	ErrTypeCheck          Err = "typecheck"
	ErrRangeCheck         Err = "rangecheck"
	ErrInvalidAccess      Err = "invalidaccess"
	ErrInvalidExit        Err = "invalidexit"
	ErrInvalidRestore     Err = "invalidrestore"
	ErrInvalidFileAccess  Err = "invalidfileaccess"
	ErrInvalidFont        Err = "invalidfont"
	ErrUndefined          Err = "undefined"
	ErrUndefinedFilename  Err = "undefinedfilename"
	ErrUndefinedResource  Err = "undefinedresource"
	ErrUndefinedResult    Err = "undefinedresult"
	ErrUnmatchedMark      Err = "unmatchedmark"
	ErrUnregistered       Err = "unregistered"
	ErrSyntaxError        Err = "syntaxerror"
	ErrIOError            Err = "ioerror"
	ErrLimitCheck         Err = "limitcheck"
	ErrVMError            Err = "VMerror"
	ErrDictFull           Err = "dictfull"
	ErrNoCurrentPoint     Err = "nocurrentpoint"
	ErrTimeout            Err = "timeout"
	ErrInterrupt          Err = "interrupt"
	ErrConfigurationError Err = "configurationerror"
)
