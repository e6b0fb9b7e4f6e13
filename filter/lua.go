package filter

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/filesystem"
	"github.com/avsync-cli/avsync/util"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// PlaneFn is the global table a script fills with one function per plane.
const PlaneFn = "plane_fn"

// planes is the number of planes a script can address.
const planes = 3

// Lua evaluates a Lua function for every pixel of a plane.
//
// The function receives x, y and the pixel value scaled to [0,1] and returns the new
// value on the same scale. Planes without a function are copied. Inside the function
// p(x, y) reads the current plane and px(plane, x, y) reads any plane of the source
// frame, both clamped to the plane edges. The globals width and height hold the
// luma size.
type Lua struct {
	name  string
	state *lua.LState
	fns   [planes]*lua.LFunction

	src   *decode.Frame
	plane int
}

// NewLuaExpr builds a filter from one Lua expression per plane. Empty expressions
// leave their plane untouched.
func NewLuaExpr(exprs ...string) (*Lua, error) {
	if len(exprs) > planes {
		return nil, fmt.Errorf("lua filter: %d expressions for %d planes", len(exprs), planes)
	}
	if strings.TrimSpace(strings.Join(exprs, "")) == "" {
		return nil, fmt.Errorf("lua filter: no expressions")
	}

	l := newLua("lua expr")
	for i, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		fn, err := l.state.LoadString("local x, y, c = ...; return (" + expr + ")")
		if err != nil {
			l.state.Close()
			return nil, fmt.Errorf("lua filter: plane %d: %w", i+1, err)
		}
		l.fns[i] = fn
	}
	return l, nil
}

// Scripts compiles filter scripts once. Filters loaded through it share the compiled
// form of a script but each get their own Lua state.
type Scripts struct {
	mu     sync.Mutex
	protos map[string]*lua.FunctionProto
}

// NewScripts creates an empty script cache.
func NewScripts() *Scripts {
	return &Scripts{protos: make(map[string]*lua.FunctionProto)}
}

// LoadLua loads a script without keeping its compiled form around.
func LoadLua(path string) (*Lua, error) {
	return NewScripts().Load(path)
}

// Load runs the script at path, which must assign the plane_fn table.
func (sc *Scripts) Load(path string) (*Lua, error) {
	proto, err := sc.compile(path)
	if err != nil {
		return nil, fmt.Errorf("lua filter %s: %w", path, err)
	}

	l := newLua(util.FileStem(path))
	l.state.Push(l.state.NewFunctionFromProto(proto))
	if err := l.state.PCall(0, lua.MultRet, nil); err != nil {
		l.state.Close()
		return nil, fmt.Errorf("lua filter %s: %w", path, err)
	}

	table, ok := l.state.GetGlobal(PlaneFn).(*lua.LTable)
	if !ok {
		l.state.Close()
		return nil, fmt.Errorf("lua filter %s: %s table is required but not defined", path, PlaneFn)
	}
	for i := 0; i < planes; i++ {
		if fn, ok := table.RawGetInt(i + 1).(*lua.LFunction); ok {
			l.fns[i] = fn
		}
	}
	return l, nil
}

func newLua(name string) *Lua {
	l := &Lua{name: name, state: lua.NewState()}
	l.state.SetGlobal("px", l.state.NewFunction(l.luaPx))
	l.state.SetGlobal("p", l.state.NewFunction(l.luaP))
	return l
}

// compile parses the script at path unless it was compiled before.
func (sc *Scripts) compile(path string) (*lua.FunctionProto, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if proto, ok := sc.protos[path]; ok {
		return proto, nil
	}

	file, err := filesystem.API().Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	chunk, err := parse.Parse(file, path)
	if err != nil {
		return nil, err
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}
	sc.protos[path] = proto
	return proto, nil
}

// Len is the number of compiled scripts.
func (sc *Scripts) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.protos)
}

func (l *Lua) Name() string { return l.name }

// Filter returns a new frame. The input frame is left untouched.
func (l *Lua) Filter(frame *decode.Frame) ([]*decode.Frame, error) {
	dst := frame.Clone()
	l.src = frame
	defer func() { l.src = nil }()

	l.state.SetGlobal("width", lua.LNumber(frame.Width))
	l.state.SetGlobal("height", lua.LNumber(frame.Height))

	for i := 0; i < planes && i < len(frame.Planes); i++ {
		if l.fns[i] == nil {
			continue
		}
		l.plane = i
		if err := l.filterPlane(dst, i); err != nil {
			return nil, err
		}
	}
	return []*decode.Frame{dst}, nil
}

func (l *Lua) filterPlane(dst *decode.Frame, i int) error {
	w, h := l.src.PlaneSize(i)
	stride := l.src.Stride[i]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := float64(l.src.Planes[i][y*stride+x]) / math.MaxUint8
			err := l.state.CallByParam(lua.P{
				Fn:      l.fns[i],
				NRet:    1,
				Protect: true,
			}, lua.LNumber(x), lua.LNumber(y), lua.LNumber(c))
			if err != nil {
				return err
			}

			ret := l.state.Get(-1)
			l.state.Pop(1)
			v, ok := ret.(lua.LNumber)
			if !ok {
				return fmt.Errorf("plane %d function returned %s, expected number", i+1, ret.Type())
			}
			dst.Planes[i][y*dst.Stride[i]+x] = byte(util.Clamp(math.Round(float64(v)*math.MaxUint8), 0, math.MaxUint8))
		}
	}
	return nil
}

// pixel reads plane i at (x, y), clamped to the plane, scaled to [0,1].
func (l *Lua) pixel(i, x, y int) float64 {
	if l.src == nil || i < 0 || i >= len(l.src.Planes) {
		return 0
	}
	w, h := l.src.PlaneSize(i)
	x = util.Clamp(x, 0, w-1)
	y = util.Clamp(y, 0, h-1)
	return float64(l.src.Planes[i][y*l.src.Stride[i]+x]) / math.MaxUint8
}

func (l *Lua) luaPx(L *lua.LState) int {
	plane := L.CheckInt(1)
	x, y := L.CheckInt(2), L.CheckInt(3)
	L.Push(lua.LNumber(l.pixel(plane-1, x, y)))
	return 1
}

func (l *Lua) luaP(L *lua.LState) int {
	x, y := L.CheckInt(1), L.CheckInt(2)
	L.Push(lua.LNumber(l.pixel(l.plane, x, y)))
	return 1
}

func (l *Lua) Close() error {
	l.state.Close()
	return nil
}
