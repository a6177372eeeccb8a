// Package viz renders trees with graphviz and learning curves with
// gonum/plot.
package viz

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

var formats = map[string]graphviz.Format{
	"dot": graphviz.XDOT,
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
}

func lookupFormat(name string) (graphviz.Format, error) {
	f, ok := formats[name]
	if !ok {
		var zero graphviz.Format
		return zero, errors.NewValidationError("format", "must be one of dot, png, svg, jpg", name)
	}
	return f, nil
}

func featureName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return "f" + strconv.Itoa(i)
}

func nodeLabel(n gbdt.Node, names []string) string {
	if n.IsLeaf() {
		return fmt.Sprintf("leaf %.4g\\ncover %.4g", n.LeafValue, n.Cover)
	}
	return fmt.Sprintf("%s <= %.4g\\ngain %.4g", featureName(names, n.SplitFeature), n.Threshold, n.Gain)
}

func drawTree(tree *gbdt.Tree, names []string) (*graphviz.Graphviz, *cgraph.Graph, error) {
	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		return nil, nil, errors.Wrap(err, "viz: create graph")
	}

	nodes := make([]*cgraph.Node, len(tree.Nodes))
	for i, n := range tree.Nodes {
		node, err := graph.CreateNode("n" + strconv.Itoa(i))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "viz: create node %d", i)
		}
		node.Set("label", nodeLabel(n, names))
		if n.IsLeaf() {
			node.Set("shape", "box")
		}
		nodes[i] = node
	}
	// Children always come after their parent in the arena.
	for i, n := range tree.Nodes {
		if n.IsLeaf() {
			continue
		}
		for _, child := range []struct {
			idx   int
			label string
		}{{n.LeftChild, "yes"}, {n.RightChild, "no"}} {
			edge, err := graph.CreateEdge(fmt.Sprintf("e%d_%d", i, child.idx), nodes[i], nodes[child.idx])
			if err != nil {
				return nil, nil, errors.Wrapf(err, "viz: create edge %d -> %d", i, child.idx)
			}
			edge.SetLabel(child.label)
		}
	}
	return gv, graph, nil
}

// RenderTree writes tree to w in format ("dot", "png", "svg" or "jpg").
// featureNames may be shorter than the feature count; missing names are
// shown as f<index>.
func RenderTree(w io.Writer, tree *gbdt.Tree, featureNames []string, format string) error {
	f, err := lookupFormat(format)
	if err != nil {
		return err
	}
	gv, graph, err := drawTree(tree, featureNames)
	if err != nil {
		return err
	}
	defer gv.Close()
	defer graph.Close()
	return errors.Wrap(gv.Render(graph, f, w), "viz: render tree")
}

// RenderTrees writes every tree of ens to dir as <prefix>_<index>.<format>
// and returns the file names.
func RenderTrees(ens *gbdt.Ensemble, dir, prefix, format string, featureNames []string) ([]string, error) {
	f, err := lookupFormat(format)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(ens.Trees))
	for i := range ens.Trees {
		path := filepath.Join(dir, fmt.Sprintf("%s_%05d.%s", prefix, i, format))
		gv, graph, err := drawTree(&ens.Trees[i], featureNames)
		if err != nil {
			return files, err
		}
		err = gv.RenderFilename(graph, f, path)
		graph.Close()
		gv.Close()
		if err != nil {
			return files, errors.Wrapf(err, "viz: render %s", path)
		}
		files = append(files, path)
	}
	return files, nil
}
