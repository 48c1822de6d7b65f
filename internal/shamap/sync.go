package shamap

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// FatNode is a node plus some number of levels of its descendants,
// fetched together in one call so a sync client doesn't pay a network
// round trip per tree level. It carries raw, unparsed blobs: the caller
// decides whether and when to actually install them into a Map's
// working set (DeserializeFromPrefix does that parsing).
type FatNode struct {
	ID       NodeID
	Hash     [32]byte
	Blob     []byte
	Children []FatNode
}

// FetchFat retrieves the node at id/hash from family, and recursively
// fetches up to depth further levels of its inner-node children,
// fanning each level's children out across goroutines. depth == 0 fetches
// only the requested node; depth < 0 is treated as 0.
//
// This is a package-level function rather than a Map method: it talks
// directly to a Family, independent of any particular Map's working set,
// which is exactly what a sync client priming a cold store needs.
func FetchFat(family Family, id NodeID, hash [32]byte, depth int) (*FatNode, error) {
	if family == nil {
		return nil, &MissingNodeError{NodeID: id, Expected: hash}
	}
	if depth < 0 {
		depth = 0
	}
	return fetchFatNode(family, id, hash, depth)
}

func fetchFatNode(family Family, id NodeID, hash [32]byte, depth int) (*FatNode, error) {
	blob, err := family.Retrieve(hash)
	if err != nil || blob == nil {
		return nil, &MissingNodeError{NodeID: id, Expected: hash}
	}

	node, err := DeserializeFromPrefix(id, 0, blob)
	if err != nil {
		return nil, fmt.Errorf("shamap: fetch_fat: %w", err)
	}

	fat := &FatNode{ID: id, Hash: hash, Blob: blob}
	if depth == 0 || node.IsLeaf() {
		return fat, nil
	}

	children := make([]FatNode, BranchFactor)
	present := make([]bool, BranchFactor)
	var g errgroup.Group
	for i := uint8(0); i < BranchFactor; i++ {
		if node.IsEmptyBranch(i) {
			continue
		}
		i := i
		childID, err := node.ChildNodeID(i)
		if err != nil {
			return nil, err
		}
		childHash := node.ChildHash(i)
		present[i] = true
		g.Go(func() error {
			childFat, err := fetchFatNode(family, childID, childHash, depth-1)
			if err != nil {
				return err
			}
			children[i] = *childFat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FatNode, 0, BranchFactor)
	for i := uint8(0); i < BranchFactor; i++ {
		if present[i] {
			out = append(out, children[i])
		}
	}
	fat.Children = out
	return fat, nil
}
