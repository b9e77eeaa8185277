package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/jmod"
	"github.com/meigma/jmod/abi"
	"github.com/meigma/jmod/abi/x64"
)

func writeModule(t *testing.T) (string, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w, err := jmod.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Add(jmod.SectionClasses, "module-info.class", strings.NewReader("module m")))
	require.NoError(t, w.Add(jmod.SectionClasses, "p/A.class", strings.NewReader("class A")))
	require.NoError(t, w.Add(jmod.SectionNativeLibs, "libm.so", strings.NewReader("ELF")))
	require.NoError(t, w.Close())

	p := filepath.Join(t.TempDir(), "m.jmod")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p, buf.Bytes()
}

func TestRunList(t *testing.T) {
	t.Parallel()

	p, data := writeModule(t)
	want := "classes/module-info.class\nclasses/p/A.class\nlib/libm.so\n"

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), []string{p}, &out))
	assert.Equal(t, want, out.String())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "m.jmod", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	out.Reset()
	require.NoError(t, runList(context.Background(), []string{server.URL + "/m.jmod"}, &out))
	assert.Equal(t, want, out.String())
}

func TestRunListLong(t *testing.T) {
	t.Parallel()

	p, _ := writeModule(t)
	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), []string{"-l", p}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"lib", "3", "libm.so"}, strings.Fields(lines[2]))
}

func TestRunDescribeAndHash(t *testing.T) {
	t.Parallel()

	p, _ := writeModule(t)
	a, err := jmod.Open(p)
	require.NoError(t, err)
	defer a.Close()
	d, err := a.Digest()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runHash(context.Background(), []string{p}, &out))
	assert.Equal(t, d.String()+"\n", out.String())

	out.Reset()
	require.NoError(t, runDescribe(context.Background(), []string{p}, &out))
	assert.Regexp(t, `version:\s+1\.0`, out.String())
	assert.Regexp(t, `digest:\s+`+d.String(), out.String())
	assert.Regexp(t, `classes/\s+2 entries`, out.String())
	assert.Regexp(t, `lib/\s+1 entries\s+3 bytes`, out.String())
	assert.NotContains(t, out.String(), "man/")
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Error(t, runList(context.Background(), nil, &out))
	assert.Error(t, runHash(context.Background(), []string{"a", "b"}, &out))
	assert.Error(t, runPush(context.Background(), []string{"only-file"}, &out))
	assert.Error(t, runABI([]string{"-conv", "aapcs64"}, &out))
	assert.Error(t, runABI([]string{"extra"}, &out))
}

func TestRunExtractSections(t *testing.T) {
	t.Parallel()

	p, _ := writeModule(t)
	dir := t.TempDir()
	require.NoError(t, runExtract(context.Background(), []string{"-dir", dir, "-sections", "lib", p}))

	got, err := os.ReadFile(filepath.Join(dir, "lib", "libm.so"))
	require.NoError(t, err)
	assert.Equal(t, "ELF", string(got))
	assert.NoFileExists(t, filepath.Join(dir, "classes", "module-info.class"))

	err = runExtract(context.Background(), []string{"-dir", dir, "-sections", "lib,modules", p})
	assert.ErrorIs(t, err, jmod.ErrUnknownSection)
}

func TestParseSections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    []jmod.Section
		wantErr bool
	}{
		{name: "empty", in: ""},
		{name: "blank", in: "  "},
		{name: "one", in: "conf", want: []jmod.Section{jmod.SectionConfig}},
		{name: "spaces", in: "classes, lib ,bin", want: []jmod.Section{jmod.SectionClasses, jmod.SectionNativeLibs, jmod.SectionNativeCmds}},
		{name: "unknown", in: "classes,modules", wantErr: true},
		{name: "trailing comma", in: "classes,", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseSections(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintDescriptor(t *testing.T) {
	t.Parallel()

	tab := x64.NewTable()

	var out bytes.Buffer
	require.NoError(t, printDescriptor(&out, x64.SysV(tab), tab))
	s := out.String()
	assert.Contains(t, s, "integer (8 bytes)")
	assert.Contains(t, s, "vector (16 bytes)")
	assert.Contains(t, s, "x87 (16 bytes)")
	assert.Regexp(t, `inputs:\s+rdi rsi rdx rcx r8 r9\n`, s)
	assert.Regexp(t, `inputs:\s+xmm0 xmm1 xmm2 xmm3 xmm4 xmm5 xmm6 xmm7\n`, s)
	assert.Regexp(t, `outputs:\s+X87\(0\) X87\(1\)\n`, s)
	assert.Regexp(t, `stack alignment:\s+16\n`, s)
	assert.Regexp(t, `shadow space:\s+0\n`, s)

	out.Reset()
	require.NoError(t, runABI([]string{"-conv", "win64"}, &out))
	assert.Regexp(t, `shadow space:\s+32\n`, out.String())
	assert.Regexp(t, `volatile:\s+xmm4 xmm5\n`, out.String())
}

func TestJoinNames(t *testing.T) {
	t.Parallel()

	tab := x64.NewTable()
	assert.Equal(t, "-", joinNames(nil))
	assert.Equal(t, "rax", joinNames(x64.Win64(tab).Outputs(abi.ClassInteger)))
	assert.Equal(t, "rdi rsi", joinNames(x64.SysV(tab).Inputs(abi.ClassInteger)[:2]))
}
