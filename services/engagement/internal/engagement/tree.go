package engagement

import "github.com/example/blog-engagement/services/engagement/internal/store"

// Node is a comment with the replies attached to it.
type Node struct {
	Comment store.Comment
	Replies []*Node
}

// BuildTree groups a flat comment list into threads. Roots and replies keep
// input order. A reply whose parent is not in the list is dropped, and when
// an id repeats only its first occurrence is used.
//
// Self-referencing or cyclic comments end up attached to each other and are
// unreachable from any root, so walking the result always terminates.
func BuildTree(comments []store.Comment) []*Node {
	index := make(map[string]*Node, len(comments))
	nodes := make([]*Node, len(comments))
	for i, c := range comments {
		if _, dup := index[c.ID]; dup {
			continue
		}
		n := &Node{Comment: c}
		index[c.ID] = n
		nodes[i] = n
	}

	var roots []*Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		pid := n.Comment.ParentCommentID
		if pid == nil {
			roots = append(roots, n)
			continue
		}
		if parent, ok := index[*pid]; ok {
			parent.Replies = append(parent.Replies, n)
		}
	}
	return roots
}

// ThreadNode is a root comment with its direct replies.
type ThreadNode struct {
	store.Comment
	Replies []store.Comment `json:"replies"`
}

// Thread flattens a tree to one level: roots and their direct replies.
// Deeper replies are not exposed.
func Thread(roots []*Node) []ThreadNode {
	out := make([]ThreadNode, 0, len(roots))
	for _, root := range roots {
		tn := ThreadNode{Comment: root.Comment, Replies: make([]store.Comment, 0, len(root.Replies))}
		for _, r := range root.Replies {
			tn.Replies = append(tn.Replies, r.Comment)
		}
		out = append(out, tn)
	}
	return out
}
