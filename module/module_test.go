package module_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/flomesh-io/pjs/builtin"
	"github.com/flomesh-io/pjs/eval"
	"github.com/flomesh-io/pjs/module"
	"github.com/flomesh-io/pjs/value"
)

// newTestInstance builds a module.Instance wired to a resolver backed by an
// in-memory txtar archive (golang.org/x/tools/txtar), the multi-file test
// fixture format SPEC_FULL.md §10.4 grounds on cue/parser's own txtar-shaped
// test tables.
func newTestInstance(t *testing.T, archive string) (*module.Instance, *eval.Context) {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	files := make(map[string][]byte, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = f.Data
	}

	pool := value.NewStringPool()
	reg := value.NewRegistry(pool)
	builtin.Register(reg, pool)
	globals := value.NewObj(pool, reg.ObjectClass)

	var in *module.Instance
	resolve := func(importer *module.Module, path string) (*module.Module, error) {
		data, ok := files[path+".pjs"]
		if !ok {
			return nil, nil
		}
		return in.Compile(path+".pjs", data)
	}
	in = module.NewInstance(reg, pool, globals, resolve)
	ctx := eval.NewContext(reg, pool, globals, nil, eval.Options{})
	return in, ctx
}

// TestMultiModuleLinking exercises spec §8 Testable Property 6: a
// multi-module import graph links and resolves correctly, including a
// live-binding export mutated by the exporter after the importer first
// reads it (spec.md §4.6).
func TestMultiModuleLinking(t *testing.T) {
	const archive = `
-- counter.pjs --
export let count = 1;
export function bump() { count = count + 1; }
-- main.pjs --
import { count, bump } from 'counter';
bump();
bump();
count;
`
	ar := txtar.Parse([]byte(archive))
	var mainSrc []byte
	for _, f := range ar.Files {
		if f.Name == "main.pjs" {
			mainSrc = f.Data
		}
	}
	require.NotNil(t, mainSrc)

	in, ctx := newTestInstance(t, archive)
	m, err := in.Compile("main.pjs", mainSrc)
	require.NoError(t, err)
	require.NoError(t, in.Link(m))
	require.NoError(t, in.Execute(ctx, m))

	result := m.Result()
	require.Equal(t, value.Number, result.Kind())
	require.Equal(t, float64(3), result.AsNumber())
}

// TestDirectImportCycleToleratesLazyRead exercises spec.md §4.6's
// "direct cycles in value imports resolve lazily through the exports
// object" rule: A imports B and B imports A, and each only reads the
// other's export after both have started executing.
func TestDirectImportCycleToleratesLazyRead(t *testing.T) {
	const archive = `
-- a.pjs --
import { bFlag } from 'b';
export let aFlag = true;
-- b.pjs --
import { aFlag } from 'a';
export let bFlag = true;
`
	in, ctx := newTestInstance(t, archive)
	a, err := in.Compile("a.pjs", []byte(`
import { bFlag } from 'b';
export let aFlag = true;
`))
	require.NoError(t, err)
	require.NoError(t, in.Link(a))
	require.NoError(t, in.Execute(ctx, a))
}

// TestUnresolvedImportIsLinkError confirms a resolver returning (nil, nil)
// for an unknown path surfaces as a Link-kind error rather than panicking.
func TestUnresolvedImportIsLinkError(t *testing.T) {
	in, ctx := newTestInstance(t, "-- main.pjs --\nimport { x } from 'missing';\n")
	m, err := in.Compile("main.pjs", []byte("import { x } from 'missing';\n"))
	require.NoError(t, err)
	err = in.Link(m)
	require.Error(t, err)

	_ = ctx
}
