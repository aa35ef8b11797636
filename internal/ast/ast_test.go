package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneBlockIsDeepAndIndependent(t *testing.T) {
	original := &Block{Children: []Node{
		&Number{Value: 1},
		&Operation{Kind: "dup"},
	}}

	cloned := Clone(original).(*Block)
	require.NotSame(t, original, cloned)
	require.NotSame(t, original.Children[0], cloned.Children[0])
	require.NotSame(t, original.Children[1], cloned.Children[1])
	require.Equal(t, original, cloned)

	cloned.Children[0].(*Number).Value = 99
	require.EqualValues(t, 1, original.Children[0].(*Number).Value)
}

func TestCloneIfStmtClonesBothBranches(t *testing.T) {
	original := &IfStmt{
		Then: &Block{Children: []Node{&Number{Value: 1}}},
		Else: &Block{Children: []Node{&Number{Value: 2}}},
	}
	cloned := Clone(original).(*IfStmt)
	require.NotSame(t, original.Then, cloned.Then)
	require.NotSame(t, original.Else, cloned.Else)
	require.Equal(t, original, cloned)
}

func TestCloneWhileStmtClonesBody(t *testing.T) {
	original := &WhileStmt{Body: &Block{Children: []Node{&Operation{Kind: "drop"}}}}
	cloned := Clone(original).(*WhileStmt)
	require.NotSame(t, original.Body, cloned.Body)
	require.NotSame(t, original.Body.Children[0], cloned.Body.Children[0])
}
