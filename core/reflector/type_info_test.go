package reflector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testMsg struct{ V int }

func TestTypeInfo_qualified_name(t *testing.T) {
	ti := TypeInfoFor[testMsg]()
	require.Equal(t, "github.com/joakim-brannstrom/my/core/reflector.testMsg", ti.Name)
}

func TestTypeInfo_pointer_unwrapped(t *testing.T) {
	require.Equal(t, TypeInfoFor[testMsg](), TypeInfoFor[*testMsg]())
}

func TestTypeInfo_of_value(t *testing.T) {
	require.Equal(t, TypeInfoFor[testMsg](), TypeInfoOf(testMsg{V: 1}))
}

func TestTypeInfo_unnamed(t *testing.T) {
	require.Equal(t, "[]int", TypeInfoFor[[]int]().Name)
}

func TestSignature_stable(t *testing.T) {
	require.Equal(t, SignatureFor[testMsg](), SignatureFor[testMsg]())
	require.Equal(t, SignatureFor[testMsg](), SignatureOf(testMsg{}))
}

func TestSignature_distinguishes_types(t *testing.T) {
	require.NotEqual(t, SignatureFor[int](), SignatureFor[string]())
	require.NotEqual(t, SignatureFor[testMsg](), SignatureFor[int]())
}

func TestSignature_tuple_order(t *testing.T) {
	require.NotEqual(t, SignatureFor2[int, string](), SignatureFor2[string, int]())
	require.NotEqual(t, SignatureFor2[int, int](), SignatureFor[int]())
	require.Equal(t, SignatureFor2[int, string](), SignatureOf(1, "x"))
}
