package grpcapi

import (
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/store"
)

type ReactRequest struct {
	SubjectID string `json:"subject_id"`
	// Reaction is "like" or "dislike".
	Reaction string `json:"reaction"`
}

type ReactResponse struct {
	Action engagement.Action `json:"action"`
	Stats  engagement.Stats  `json:"stats"`
}

type GetStatsRequest struct {
	SubjectID string `json:"subject_id"`
}

type GetStatsResponse struct {
	Stats engagement.Stats `json:"stats"`
}

type ListCommentsRequest struct {
	SubjectID string `json:"subject_id"`
	// IncludeAll returns every moderation status; admin only.
	IncludeAll bool `json:"include_all,omitempty"`
}

type ListCommentsResponse struct {
	Comments []engagement.ThreadNode `json:"comments"`
}

type SubmitCommentRequest struct {
	SubjectID       string  `json:"subject_id"`
	Content         string  `json:"content"`
	AuthorName      string  `json:"author_name"`
	AuthorEmail     *string `json:"author_email,omitempty"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

type SubmitCommentResponse struct {
	Comment store.Comment `json:"comment"`
}

type SetCommentStatusRequest struct {
	CommentID string `json:"comment_id"`
	Status    string `json:"status"`
}

type SetCommentStatusResponse struct {
	Comment store.Comment `json:"comment"`
}

type DeleteCommentRequest struct {
	CommentID string `json:"comment_id"`
}

type DeleteCommentResponse struct{}

type GetGlobalEngagementRequest struct{}

type GetGlobalEngagementResponse struct {
	Report engagement.Report `json:"report"`
}
