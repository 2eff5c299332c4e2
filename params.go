package crossdb

import (
	"fmt"
	"math"

	"github.com/tarmac-project/crossdb/engine"
)

// bindParam binds arg at position pos (1-based).
//
//	int8, uint8, int16, uint16, int32, uint32, bool -> 32-bit int
//	int, uint, int64, uint64                         -> 64-bit int (int fitting 32 bits binds as 32-bit)
//	float32                                          -> float
//	float64                                          -> double
//	string, []byte                                   -> text
//
// Decoded Values bind as their native Go value. Null and every other type
// return ErrInvalidParam.
func bindParam(st engine.Statements, h engine.Stmt, pos int, arg any) error {
	if v, ok := arg.(Value); ok {
		if _, null := v.(Null); null {
			return fmt.Errorf("%w: NULL at position %d", ErrInvalidParam, pos)
		}
		arg = Native(v)
	}

	var err error
	switch v := arg.(type) {
	case int8:
		err = st.BindInt(h, pos, int32(v))
	case uint8:
		err = st.BindInt(h, pos, int32(v))
	case int16:
		err = st.BindInt(h, pos, int32(v))
	case uint16:
		err = st.BindInt(h, pos, int32(v))
	case int32:
		err = st.BindInt(h, pos, v)
	case uint32:
		err = st.BindInt(h, pos, int32(v))
	case bool:
		var n int32
		if v {
			n = 1
		}
		err = st.BindInt(h, pos, n)
	case int:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			err = st.BindInt(h, pos, int32(v))
		} else {
			err = st.BindInt64(h, pos, int64(v))
		}
	case uint:
		err = st.BindInt64(h, pos, int64(v))
	case int64:
		err = st.BindInt64(h, pos, v)
	case uint64:
		err = st.BindInt64(h, pos, int64(v))
	case float32:
		err = st.BindFloat(h, pos, v)
	case float64:
		err = st.BindDouble(h, pos, v)
	case string:
		err = st.BindText(h, pos, v)
	case []byte:
		err = st.BindText(h, pos, string(v))
	default:
		return fmt.Errorf("%w: %T at position %d", ErrInvalidParam, arg, pos)
	}
	if err != nil {
		return fmt.Errorf("%w: position %d: %w", ErrBind, pos, err)
	}
	return nil
}
