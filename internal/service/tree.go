package service

import (
	"sort"

	"Vega_PT/internal/model"
)

// MaxThreadDepth 评论树最多渲染的层数（含root层）。
// 超过的回复不会被丢弃，而是拍平挂到最深可渲染层，见attachComment。
const MaxThreadDepth = 4

// root的展示层号是0，所以最深展示层号比层数小一
const maxRenderDepth = MaxThreadDepth - 1

// CommentNode 渲染树节点。Depth是展示层号，拍平后不一定等于Comment.Depth；
// 评论本体只被引用，父子关系(ParentID)原样保留在Comment里
type CommentNode struct {
	Comment *model.Comment
	Depth   int

	UpvoteCount   int
	DownvoteCount int
	Score         int
	ViewerVote    model.VoteDirection

	IsUploader  bool
	AuthorBadge model.AuthorBadge

	Children []*CommentNode
}

// buildCommentForest 把一页root评论和这些楼层的全部后代组装成渲染树。
// replies里parent不在本批次的脏数据会被静默跳过。
func buildCommentForest(roots []model.Comment, replies []model.Comment) []*CommentNode {
	childrenOf := make(map[uint64][]*model.Comment, len(replies))
	for i := range replies {
		reply := &replies[i]
		if reply.ParentID == nil {
			continue
		}
		childrenOf[*reply.ParentID] = append(childrenOf[*reply.ParentID], reply)
	}

	forest := make([]*CommentNode, 0, len(roots))
	for i := range roots {
		node := &CommentNode{Comment: &roots[i], Depth: 0}
		for _, child := range childrenOf[node.Comment.ID] {
			attachComment(node, child, childrenOf)
		}
		sortChildrenByTime(node)
		forest = append(forest, node)
	}
	return forest
}

// attachComment 把comment挂为parent的子节点。若子节点已落在最深展示层，
// 它的后代不再往下嵌套，整棵子树拍平挂到parent下的同一层
func attachComment(parent *CommentNode, comment *model.Comment, childrenOf map[uint64][]*model.Comment) {
	node := &CommentNode{Comment: comment, Depth: parent.Depth + 1}
	parent.Children = append(parent.Children, node)

	children := childrenOf[comment.ID]
	if node.Depth < maxRenderDepth {
		for _, child := range children {
			attachComment(node, child, childrenOf)
		}
		return
	}
	for _, child := range children {
		flattenSubtree(parent, child, childrenOf)
	}
}

// flattenSubtree 把comment及其全部后代逐个挂到host下，层号一律host+1
func flattenSubtree(host *CommentNode, comment *model.Comment, childrenOf map[uint64][]*model.Comment) {
	node := &CommentNode{Comment: comment, Depth: host.Depth + 1}
	host.Children = append(host.Children, node)
	for _, child := range childrenOf[comment.ID] {
		flattenSubtree(host, child, childrenOf)
	}
}

// sortChildrenByTime 递归按(创建时间, ID)升序整理每个兄弟组，
// 回复永远晚于它回复的对象，所以拍平进来的节点自然排在其祖先之后
func sortChildrenByTime(node *CommentNode) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i].Comment, node.Children[j].Comment
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	for _, child := range node.Children {
		sortChildrenByTime(child)
	}
}

// collectCommentIDs 先序收集整片森林的评论ID，交给投票聚合一次批量查
func collectCommentIDs(forest []*CommentNode) []uint64 {
	var ids []uint64
	var walk func(*CommentNode)
	walk = func(n *CommentNode) {
		ids = append(ids, n.Comment.ID)
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range forest {
		walk(root)
	}
	return ids
}

// annotateForest 把投票聚合、楼主标识和作者身份写到每个节点上。
// aggs里缺失的ID按零值处理，分数是赞减踩
func annotateForest(forest []*CommentNode, aggs map[uint64]VoteAggregate, uploaderID uint64) {
	var walk func(*CommentNode)
	walk = func(n *CommentNode) {
		agg := aggs[n.Comment.ID]
		n.UpvoteCount = agg.UpvoteCount
		n.DownvoteCount = agg.DownvoteCount
		n.Score = agg.Score()
		n.ViewerVote = agg.ViewerVote
		n.IsUploader = n.Comment.UserID == uploaderID
		n.AuthorBadge = model.BadgeForRole(n.Comment.User.Role)
		for _, child := range n.Children {
			walk(child)
		}
	}
	for _, root := range forest {
		walk(root)
	}
}
