// Package scenario runs Lua scripts that drive an editing session.
//
// A scenario talks to the host side through the "session" module: it
// formats, moves the selection, types text and reads back statuses and
// HTML. Every call waits for the document to settle before returning, so a
// script observes the effects of its previous call.
//
//	session.set_html("<p>hello</p>")
//	session.select(0, 5)
//	session.bold()
//	print(session.status().bold, session.export())
package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/richbridge/internal/bridge"
	"github.com/dshills/richbridge/internal/color"
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/logging"
	"github.com/dshills/richbridge/internal/luart"
	"github.com/dshills/richbridge/internal/status"
)

// Document is the part of the document environment a scenario drives
// directly, bypassing the host API the way a user's pointer and keyboard
// would.
type Document interface {
	Settle(ctx context.Context) error
	SelectText(start, end int) error
	SelectAll() error
	InsertText(text string) error
	HTML() (string, error)
	Text() (string, error)
}

// Runner executes scenarios against one editor session.
type Runner struct {
	editor *bridge.Editor
	doc    Document
	state  *luart.State
	logger *logging.Logger
}

// Option configures a Runner.
type Option func(*options)

type options struct {
	logger  *logging.Logger
	output  io.Writer
	timeout time.Duration
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOutput redirects the scenario's print output.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithTimeout bounds a whole scenario run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New creates a runner for editor over doc.
func New(editor *bridge.Editor, doc Document, opts ...Option) *Runner {
	o := options{output: os.Stdout, timeout: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Null()
	}

	r := &Runner{
		editor: editor,
		doc:    doc,
		state:  luart.NewState(luart.WithTimeout(o.timeout), luart.WithOutput(o.output)),
		logger: o.logger.WithComponent("scenario").WithField("session", editor.ID()),
	}
	r.state.RegisterModule("session", r.module())
	return r
}

// Run executes a scenario.
func (r *Runner) Run(ctx context.Context, code string) error {
	if err := r.state.DoString(ctx, code); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	return r.settle(ctx)
}

// RunFile executes the scenario stored at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading scenario: %w", err)
	}
	r.logger.Info("running %s", path)
	return r.Run(ctx, string(code))
}

// Close releases the Lua state.
func (r *Runner) Close() error {
	return r.state.Close()
}

func (r *Runner) settle(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return r.doc.Settle(ctx)
}

// after wraps a session function so the document settles once it returns.
func (r *Runner) after(fn func(L *lua.LState) int) lua.LGFunction {
	return func(L *lua.LState) int {
		n := fn(L)
		if err := r.settle(L.Context()); err != nil {
			L.RaiseError("settle: %v", err)
		}
		return n
	}
}

func (r *Runner) action(fn func()) lua.LGFunction {
	return r.after(func(*lua.LState) int {
		fn()
		return 0
	})
}

func (r *Runner) module() map[string]lua.LGFunction {
	e := r.editor
	return map[string]lua.LGFunction{
		"bold":           r.action(e.ToggleBold),
		"italic":         r.action(e.ToggleItalic),
		"underline":      r.action(e.ToggleUnderline),
		"strike":         r.action(e.ToggleStrikeThrough),
		"subscript":      r.action(e.ToggleSubscript),
		"superscript":    r.action(e.ToggleSuperscript),
		"ordered_list":   r.action(e.ToggleOrderedList),
		"unordered_list": r.action(e.ToggleUnorderedList),
		"remove_format":  r.action(e.RemoveFormat),
		"indent":         r.action(e.Indent),
		"outdent":        r.action(e.Outdent),
		"undo":           r.action(e.Undo),
		"redo":           r.action(e.Redo),
		"unlink":         r.action(e.Unlink),
		"focus":          r.action(e.RequestFocus),
		"settle":         r.action(func() {}),

		"justify": r.after(func(L *lua.LState) int {
			j, err := command.ParseJustification(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
			}
			e.Justify(j)
			return 0
		}),
		"text_color": r.after(func(L *lua.LState) int {
			e.SetTextColor(checkColor(L, 1))
			return 0
		}),
		"background_color": r.after(func(L *lua.LState) int {
			e.SetTextBackgroundColor(checkColor(L, 1))
			return 0
		}),
		"font_size": r.after(func(L *lua.LState) int {
			if err := e.SetFontSize(L.CheckInt(1)); err != nil {
				L.ArgError(1, err.Error())
			}
			return 0
		}),
		"create_link": r.after(func(L *lua.LState) int {
			url := L.CheckString(2)
			e.CreateLink(L.OptString(1, ""), url)
			return 0
		}),
		"set_html": r.after(func(L *lua.LState) int {
			e.SetHTML(L.CheckString(1))
			return 0
		}),
		"add_css": r.after(func(L *lua.LState) int {
			e.AddCSS(L.CheckString(1))
			return 0
		}),
		"add_script": r.after(func(L *lua.LState) int {
			e.AddScriptWithID(L.CheckString(1), L.OptString(2, ""))
			return 0
		}),
		"spellcheck": r.after(func(L *lua.LState) int {
			e.SetSpellCheck(L.ToBool(1))
			return 0
		}),
		"subscribe": r.after(func(L *lua.LState) int {
			s, err := checkSubscription(L, 1)
			if err != nil {
				L.ArgError(1, err.Error())
			}
			e.SubscribeToStates(s)
			return 0
		}),

		"select": r.after(func(L *lua.LState) int {
			start := L.CheckInt(1)
			if err := r.doc.SelectText(start, L.OptInt(2, start)); err != nil {
				L.RaiseError("select: %v", err)
			}
			return 0
		}),
		"select_all": r.after(func(L *lua.LState) int {
			if err := r.doc.SelectAll(); err != nil {
				L.RaiseError("select_all: %v", err)
			}
			return 0
		}),
		"type": r.after(func(L *lua.LState) int {
			if err := r.doc.InsertText(L.CheckString(1)); err != nil {
				L.RaiseError("type: %v", err)
			}
			return 0
		}),

		"html": func(L *lua.LState) int {
			html, err := r.doc.HTML()
			if err != nil {
				L.RaiseError("html: %v", err)
			}
			L.Push(lua.LString(html))
			return 1
		},
		"text": func(L *lua.LState) int {
			text, err := r.doc.Text()
			if err != nil {
				L.RaiseError("text: %v", err)
			}
			L.Push(lua.LString(text))
			return 1
		},
		"export": func(L *lua.LState) int {
			L.Push(lua.LString(r.export(L)))
			return 1
		},
		"status": func(L *lua.LState) int {
			L.Push(luart.ToLua(L, statusTable(e.Statuses())))
			return 1
		},
		"empty": func(L *lua.LState) int {
			empty, known := e.IsEmpty()
			if !known {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LBool(empty))
			return 1
		},
		"log": func(L *lua.LState) int {
			r.logger.Info("%s", L.CheckString(1))
			return 0
		},
	}
}

// export requests the editor HTML through the host API and waits for it.
func (r *Runner) export(L *lua.LState) string {
	got := make(chan string, 1)
	r.editor.ExportHTML(func(html string) {
		select {
		case got <- html:
		default:
		}
	})
	if err := r.settle(L.Context()); err != nil {
		L.RaiseError("export: %v", err)
	}
	select {
	case html := <-got:
		return html
	default:
		L.RaiseError("export: no html received")
		return ""
	}
}

func checkColor(L *lua.LState, n int) color.Color {
	s := L.CheckString(n)
	c, ok := color.Parse(s)
	if !ok {
		L.ArgError(n, fmt.Sprintf("invalid color %q", s))
	}
	return c
}

// checkSubscription reads a list of command names. nil or no argument
// subscribes to every command.
func checkSubscription(L *lua.LState, n int) (command.Subscription, error) {
	lv := L.Get(n)
	if lv == lua.LNil {
		return nil, nil
	}
	t := L.CheckTable(n)
	names := []string{}
	t.ForEach(func(_, v lua.LValue) {
		names = append(names, lua.LVAsString(v))
	})
	return command.ParseSubscription(names)
}

// statusTable converts statuses to the table returned by session.status.
// Unknown values are absent from the table.
func statusTable(s status.Statuses) map[string]any {
	t := map[string]any{
		"bold":           s.Bold,
		"italic":         s.Italic,
		"strike_through": s.StrikeThrough,
		"underline":      s.Underline,
		"link":           s.LinkSelected,
		"ordered_list":   s.OrderedList,
		"unordered_list": s.UnorderedList,
		"subscript":      s.Subscript,
		"superscript":    s.Superscript,
		"justification":  s.Justification.String(),
	}
	if s.FontName != nil {
		t["font_name"] = *s.FontName
	}
	if s.FontSize != nil {
		t["font_size"] = *s.FontSize
	}
	if s.TextColor != nil {
		t["text_color"] = "#" + s.TextColor.Hex()
	}
	if s.BackgroundColor != nil {
		t["background_color"] = "#" + s.BackgroundColor.Hex()
	}
	return t
}
