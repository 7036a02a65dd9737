// Package flux runs user-supplied WebAssembly sample filters. A filter module
// exports filter(f64) -> f64 and may optionally export filter_reset() and
// filter_name() -> i32 (pointer to a NUL-terminated string in its memory).
package flux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const (
	exportFilter = "filter"
	exportReset  = "filter_reset"
	exportName   = "filter_name"
)

// Filter applies a WASM filter to pressure deltas. Calls are serialized;
// wasm instances are single-threaded.
type Filter struct {
	runtime wazero.Runtime
	module  api.Module
	apply   api.Function
	name    string
	mu      sync.Mutex
}

// Load reads and instantiates a filter from a .wasm file
func Load(ctx context.Context, wasmPath string) (*Filter, error) {
	wasmBytes, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}

	f, err := New(ctx, wasmBytes)
	if err != nil {
		return nil, err
	}
	if f.name == "" {
		f.name = strings.TrimSuffix(filepath.Base(wasmPath), filepath.Ext(wasmPath))
	}
	return f, nil
}

// New instantiates a filter from module bytes
func New(ctx context.Context, wasmBytes []byte) (*Filter, error) {
	r := wazero.NewRuntime(ctx)

	// Filters built with TinyGo or Rust wasi targets import WASI
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("failed to compile wasm module: %w", err)
	}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithStdout(os.Stdout).WithStderr(os.Stderr))
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasm module: %w", err)
	}

	fn := mod.ExportedFunction(exportFilter)
	if fn == nil {
		r.Close(ctx)
		return nil, fmt.Errorf("%s not exported", exportFilter)
	}
	if err := checkSignature(fn.Definition()); err != nil {
		r.Close(ctx)
		return nil, err
	}

	f := &Filter{runtime: r, module: mod, apply: fn}
	if nameFn := mod.ExportedFunction(exportName); nameFn != nil {
		if name, err := f.callString(ctx, nameFn); err == nil {
			f.name = name
		}
	}
	return f, nil
}

func checkSignature(def api.FunctionDefinition) error {
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 1 || params[0] != api.ValueTypeF64 || len(results) != 1 || results[0] != api.ValueTypeF64 {
		return fmt.Errorf("%s must have signature (f64) -> f64", exportFilter)
	}
	return nil
}

// Name returns the filter's self-reported name, or the file name it was loaded from
func (f *Filter) Name() string {
	return f.name
}

// Apply runs one sample through the filter
func (f *Filter) Apply(ctx context.Context, x float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	results, err := f.apply.Call(ctx, api.EncodeF64(x))
	if err != nil {
		return 0, fmt.Errorf("failed to call %s: %w", exportFilter, err)
	}
	return api.DecodeF64(results[0]), nil
}

// Reset clears filter state if the module supports it
func (f *Filter) Reset(ctx context.Context) error {
	fn := f.module.ExportedFunction(exportReset)
	if fn == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := fn.Call(ctx); err != nil {
		return fmt.Errorf("failed to call %s: %w", exportReset, err)
	}
	return nil
}

func (f *Filter) Close(ctx context.Context) error {
	return f.runtime.Close(ctx)
}

func (f *Filter) callString(ctx context.Context, fn api.Function) (string, error) {
	results, err := fn.Call(ctx)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no string pointer returned")
	}
	return f.readString(uint32(results[0]))
}

func (f *Filter) readString(ptr uint32) (string, error) {
	mem := f.module.Memory()
	if mem == nil {
		return "", fmt.Errorf("module exports no memory")
	}
	buf, ok := mem.Read(ptr, mem.Size()-ptr)
	if !ok {
		return "", fmt.Errorf("failed to read from memory at %d", ptr)
	}

	// Find null terminator
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}

	return "", fmt.Errorf("string not null-terminated")
}
