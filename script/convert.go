package script

import (
	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go firing argument to its Lua form. Values without a
// natural Lua shape cross as userdata so they round-trip unchanged.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	case lua.LValue:
		return val
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// fromLua converts a Lua value to its Go form. Integral numbers become
// int64, array-shaped tables become slices, and everything else keyed
// becomes a string map.
func fromLua(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		return tableToGo(val)
	case *lua.LUserData:
		return val.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable) any {
	if n := t.Len(); n > 0 {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = fromLua(t.RawGetInt(i))
		}
		return arr
	}
	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = fromLua(v)
	})
	return m
}
