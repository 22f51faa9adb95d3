package paths

// Result represents a path computation result code
type Result int

// Result codes, grouped the way ledger results are: tes, tec, tef, tem, ter
const (
	// tesSUCCESS
	TesSUCCESS Result = 0

	// tec: the computation ran but could not deliver
	TecPATH_PARTIAL    Result = 101
	TecPATH_DRY        Result = 128
	TecSOURCE_CONFLICT Result = 174

	// tef: internal failure, nothing is applied
	TefINTERNAL  Result = -187
	TefEXCEPTION Result = -186

	// tem: malformed request or path
	TemBAD_AMOUNT    Result = -298
	TemBAD_PATH      Result = -283
	TemBAD_PATH_LOOP Result = -282
	TemBAD_SEND_XRP  Result = -280
	TemREDUNDANT     Result = -275
	TemRIPPLE_EMPTY  Result = -273

	// ter: a relation the path names is missing
	TerNO_LINE Result = -94
)

// Kind is the abstract outcome family of a Result.
type Kind int

const (
	KindSuccess Kind = iota
	KindPathMalformed
	KindPathDry
	KindSourceConflict
	KindPartialUnacceptable
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindPathMalformed:
		return "PathMalformed"
	case KindPathDry:
		return "PathDry"
	case KindSourceConflict:
		return "SourceConflict"
	case KindPartialUnacceptable:
		return "PartialUnacceptable"
	case KindInternal:
		return "Internal"
	}
	return "Unknown"
}

// Kind maps r to its outcome family. Unknown codes are Internal.
func (r Result) Kind() Kind {
	switch {
	case r == TesSUCCESS:
		return KindSuccess
	case r.IsTem(), r == TerNO_LINE:
		return KindPathMalformed
	case r == TecPATH_DRY:
		return KindPathDry
	case r == TecSOURCE_CONFLICT:
		return KindSourceConflict
	case r == TecPATH_PARTIAL:
		return KindPartialUnacceptable
	}
	return KindInternal
}

func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecPATH_PARTIAL:
		return "tecPATH_PARTIAL"
	case TecPATH_DRY:
		return "tecPATH_DRY"
	case TecSOURCE_CONFLICT:
		return "tecSOURCE_CONFLICT"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefEXCEPTION:
		return "tefEXCEPTION"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_PATH:
		return "temBAD_PATH"
	case TemBAD_PATH_LOOP:
		return "temBAD_PATH_LOOP"
	case TemBAD_SEND_XRP:
		return "temBAD_SEND_XRP"
	case TemREDUNDANT:
		return "temREDUNDANT"
	case TemRIPPLE_EMPTY:
		return "temRIPPLE_EMPTY"
	case TerNO_LINE:
		return "terNO_LINE"
	}
	return "unknown"
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The payment was computed."
	case TecPATH_PARTIAL:
		return "Path could not send full amount."
	case TecPATH_DRY:
		return "Path could not send partial amount."
	case TecSOURCE_CONFLICT:
		return "Every usable offer is funded by a source another node already claimed."
	case TefINTERNAL:
		return "Internal error."
	case TefEXCEPTION:
		return "Unexpected ledger state."
	case TemBAD_AMOUNT:
		return "Can only send positive amounts."
	case TemBAD_PATH:
		return "Malformed: Bad path."
	case TemBAD_PATH_LOOP:
		return "Malformed: Loop in path."
	case TemBAD_SEND_XRP:
		return "Malformed: XRP to XRP needs no path computation."
	case TemREDUNDANT:
		return "Sends same currency to self."
	case TemRIPPLE_EMPTY:
		return "PathSet with no paths."
	case TerNO_LINE:
		return "No such line."
	}
	return "Unknown result."
}

func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (claimed cost) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// dry reports whether r only retires the path that produced it.
func (r Result) dry() bool {
	return r == TecPATH_DRY || r == TecSOURCE_CONFLICT
}
