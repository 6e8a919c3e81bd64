package compact

import (
	"fmt"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/storviz/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// buildTree creates a tree of the given depth with width children per
// directory; the last child at each level is a file.
func buildTree(path, name string, depth, width int) *model.Node {
	n := &model.Node{Name: name, Path: path, IsDir: true, Children: []*model.Node{}}
	for i := 0; i < width; i++ {
		childName := fmt.Sprintf("%s-%d", name, i)
		childPath := filepath.Join(path, childName)
		if depth > 1 && i < width-1 {
			n.Children = append(n.Children, buildTree(childPath, childName, depth-1, width))
		} else {
			n.Children = append(n.Children, &model.Node{
				Name: childName,
				Path: childPath,
				Size: int64(len(childPath)),
			})
		}
	}
	n.SumChildren()
	return n
}

func assertSameTree(t *testing.T, want, got *model.Node) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Size, got.Size, want.Path)
	assert.Equal(t, want.IsDir, got.IsDir, want.Path)
	assert.Equal(t, want.Path, got.Path)
	require.Len(t, got.Children, len(want.Children), want.Path)
	for i := range want.Children {
		assertSameTree(t, want.Children[i], got.Children[i])
	}
}

func TestRoundTrip(t *testing.T) {
	rootPath := filepath.Join(t.TempDir(), "scan")
	tree := buildTree(rootPath, "scan", 4, 3)
	require.NoError(t, tree.Verify())

	decoded := Decode(Encode(tree), rootPath)

	assertSameTree(t, tree, decoded)
	assert.NoError(t, decoded.Verify())
}

func TestRoundTripThroughJSON(t *testing.T) {
	rootPath := filepath.Join(t.TempDir(), "scan")
	tree := buildTree(rootPath, "scan", 3, 4)

	data, err := json.Marshal(Encode(tree))
	require.NoError(t, err)

	var c Node
	require.NoError(t, json.Unmarshal(data, &c))

	assertSameTree(t, tree, Decode(&c, rootPath))
}

func TestShortFieldNames(t *testing.T) {
	tree := &model.Node{
		Name:  "root",
		IsDir: true,
		Size:  7,
		Children: []*model.Node{
			{Name: "a.txt", Size: 7},
		},
	}

	data, err := json.Marshal(Encode(tree))
	require.NoError(t, err)

	assert.JSONEq(t, `{"n":"root","s":7,"d":true,"c":[{"n":"a.txt","s":7,"d":false}]}`, string(data))
}

func TestEmptyDirectoryDecodesWithEmptyChildren(t *testing.T) {
	decoded := Decode(&Node{N: "empty", D: true}, "/empty")

	assert.True(t, decoded.IsDir)
	assert.NotNil(t, decoded.Children)
	assert.Empty(t, decoded.Children)
}

func TestShallowAll(t *testing.T) {
	nodes := []*model.Node{
		{Name: "d", IsDir: true, Size: 10, Children: []*model.Node{{Name: "x", Size: 10}}},
		{Name: "f", Size: 3},
	}

	out := ShallowAll(nodes)

	require.Len(t, out, 2)
	assert.Nil(t, out[0].C)
	assert.Equal(t, int64(10), out[0].S)
	assert.Equal(t, "f", out[1].N)
}
