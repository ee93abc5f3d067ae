package ape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalImportPathAppendsExtension(t *testing.T) {
	require.Equal(t, "lib.bn", CanonicalImportPath("lib", ""))
	require.Equal(t, "lib.bn", CanonicalImportPath("lib.bn", ""))
}

func TestCanonicalImportPathRelativeToImportingFile(t *testing.T) {
	got := CanonicalImportPath("lib", "scripts/main.bn")
	require.Equal(t, "scripts/lib.bn", got)
}

func TestModuleNameStripsDirAndExtension(t *testing.T) {
	require.Equal(t, "lib", ModuleName("scripts/lib.bn"))
}

func TestModuleCacheGetPutRoundTrip(t *testing.T) {
	mc := NewModuleCache(fileImportLoader{})
	_, ok := mc.Get("nope.bn")
	require.False(t, ok)

	rec := &ModuleRecord{CanonicalPath: "lib.bn", Name: "lib"}
	mc.Put(rec)

	got, ok := mc.Get("lib.bn")
	require.True(t, ok)
	require.Same(t, rec, got)
}
