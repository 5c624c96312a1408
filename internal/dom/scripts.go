package dom

import (
	"context"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/richbridge/internal/color"
	"github.com/dshills/richbridge/internal/luart"
)

// newScriptState creates the Lua state for user scripts with the editor
// module installed. Its functions run on the document goroutine.
func (d *Document) newScriptState() *luart.State {
	s := luart.NewState(luart.WithTimeout(d.scriptTimeout), luart.WithOutput(d.scriptOutput))
	s.RegisterModule("editor", map[string]lua.LGFunction{
		"html": func(L *lua.LState) int {
			L.Push(lua.LString(innerHTML(d.editor)))
			return 1
		},
		"set_html": func(L *lua.LState) int {
			d.setEditorHTML(L.CheckString(1))
			return 0
		},
		"text": func(L *lua.LState) int {
			L.Push(lua.LString(textContent(d.editor)))
			return 1
		},
		"exec": func(L *lua.LState) int {
			var value any
			if L.GetTop() >= 2 {
				value = luart.ToGo(L.Get(2))
			}
			L.Push(lua.LBool(d.execCommand(L.CheckString(1), value)))
			return 1
		},
		"state": func(L *lua.LState) int {
			L.Push(lua.LBool(d.QueryCommandState(L.CheckString(1))))
			return 1
		},
		"value": func(L *lua.LState) int {
			L.Push(lua.LString(d.QueryCommandValue(L.CheckString(1))))
			return 1
		},
		"select": func(L *lua.LState) int {
			start := L.CheckInt(1)
			d.setSelection(start, L.OptInt(2, start))
			return 0
		},
		"caret": func(L *lua.LState) int {
			L.Push(lua.LBool(d.sel.Collapsed()))
			return 1
		},
		"insert": func(L *lua.LState) int {
			d.insertText(L.CheckString(1))
			return 0
		},
		"link_selected": func(L *lua.LState) int {
			L.Push(lua.LBool(d.LinkSelected()))
			return 1
		},
	})
	return s
}

// injectScript runs a user script once per id. An empty id always runs.
func (d *Document) injectScript(code, id string) bool {
	if id != "" {
		if d.scriptIDs[id] {
			return false
		}
		d.scriptIDs[id] = true
	}
	if err := d.lua.DoString(context.Background(), code); err != nil {
		d.logger.Warn("user script %q failed: %v", id, err)
		return false
	}
	return true
}

// callScript calls a global function defined by a user script. Unknown
// names evaluate to null.
func (d *Document) callScript(name string, args []any) string {
	if !d.lua.HasFunction(name) {
		d.logger.Warn("%s is not defined", name)
		return resultNull
	}
	luaArgs := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case color.Color:
			luaArgs[i] = v.Hex()
		default:
			luaArgs[i] = v
		}
	}
	results, err := d.lua.Call(context.Background(), name, luaArgs...)
	if err != nil {
		d.logger.Warn("%s failed: %v", name, err)
		return resultNull
	}
	if len(results) == 0 {
		return resultNull
	}
	return resultString(results[0])
}

func resultString(v any) string {
	switch val := v.(type) {
	case nil:
		return resultNull
	case string:
		return val
	case bool:
		return boolResult(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return resultNull
	}
}
