package grpcapi

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/render"
	"github.com/example/blog-engagement/services/engagement/internal/store"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "engagement.v1.EngagementService"

// EngagementServer is the server API for EngagementService.
type EngagementServer interface {
	React(context.Context, *ReactRequest) (*ReactResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error)
	ListComments(context.Context, *ListCommentsRequest) (*ListCommentsResponse, error)
	SubmitComment(context.Context, *SubmitCommentRequest) (*SubmitCommentResponse, error)
	SetCommentStatus(context.Context, *SetCommentStatusRequest) (*SetCommentStatusResponse, error)
	DeleteComment(context.Context, *DeleteCommentRequest) (*DeleteCommentResponse, error)
	GetGlobalEngagement(context.Context, *GetGlobalEngagementRequest) (*GetGlobalEngagementResponse, error)
}

func unary[Req, Resp any](name string, call func(EngagementServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(EngagementServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes EngagementService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngagementServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("React", EngagementServer.React),
		unary("GetStats", EngagementServer.GetStats),
		unary("ListComments", EngagementServer.ListComments),
		unary("SubmitComment", EngagementServer.SubmitComment),
		unary("SetCommentStatus", EngagementServer.SetCommentStatus),
		unary("DeleteComment", EngagementServer.DeleteComment),
		unary("GetGlobalEngagement", EngagementServer.GetGlobalEngagement),
	},
	Metadata: "engagement/v1/engagement",
}

func RegisterEngagementServer(s grpc.ServiceRegistrar, srv EngagementServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Service implements EngagementServer on top of the engine. Callers are
// identified by metadata set by a trusted gateway: user_id, visitor_id, role.
type Service struct {
	Reactions *engagement.Reactions
	Moderator *engagement.Moderator
	Reports   engagement.ReportSource
	Visitors  auth.VisitorHasher
}

var _ EngagementServer = (*Service)(nil)

func mdValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

func (s *Service) actor(ctx context.Context) (engagement.Actor, bool) {
	if uid := mdValue(ctx, "user_id"); uid != "" {
		return engagement.Actor{ID: uid}, true
	}
	if id := s.Visitors.ActorID(mdValue(ctx, "visitor_id")); id != "" {
		return engagement.Actor{ID: id, Anonymous: true}, true
	}
	return engagement.Actor{}, false
}

func requireAdmin(ctx context.Context) error {
	if mdValue(ctx, "user_id") == "" {
		return errUnauthenticated("missing user_id in metadata")
	}
	if !strings.EqualFold(mdValue(ctx, "role"), "admin") {
		return errPermissionDenied("admin role required")
	}
	return nil
}

func (s *Service) React(ctx context.Context, req *ReactRequest) (*ReactResponse, error) {
	var positive bool
	switch strings.ToLower(strings.TrimSpace(req.Reaction)) {
	case engagement.CallerLike:
		positive = true
	case engagement.CallerDislike:
	default:
		return nil, errInvalidArgument("INVALID_REACTION", "reaction", "reaction must be like or dislike")
	}

	actor, _ := s.actor(ctx)
	out, err := s.Reactions.React(ctx, req.SubjectID, actor, positive)
	if err != nil {
		return nil, toStatus(err)
	}
	st, err := s.Reactions.Stats(ctx, strings.TrimSpace(req.SubjectID), &actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReactResponse{Action: out.Action, Stats: st}, nil
}

func (s *Service) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return nil, errInvalidArgument("MISSING_ID", "subject_id", "subject_id is required")
	}
	var caller *engagement.Actor
	if a, ok := s.actor(ctx); ok {
		caller = &a
	}
	st, err := s.Reactions.Stats(ctx, subjectID, caller)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetStatsResponse{Stats: st}, nil
}

func (s *Service) ListComments(ctx context.Context, req *ListCommentsRequest) (*ListCommentsResponse, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return nil, errInvalidArgument("MISSING_ID", "subject_id", "subject_id is required")
	}
	if req.IncludeAll {
		if err := requireAdmin(ctx); err != nil {
			return nil, err
		}
	}
	nodes, err := s.Moderator.Thread(ctx, subjectID, req.IncludeAll)
	if err != nil {
		return nil, toStatus(err)
	}
	if !req.IncludeAll {
		for i := range nodes {
			nodes[i].Comment = public(nodes[i].Comment)
			for j := range nodes[i].Replies {
				nodes[i].Replies[j] = public(nodes[i].Replies[j])
			}
		}
	}
	return &ListCommentsResponse{Comments: nodes}, nil
}

// public hides contact details from non-admin callers.
func public(c store.Comment) store.Comment {
	c.AuthorEmail = nil
	c.ActorID = nil
	return c
}

func (s *Service) SubmitComment(ctx context.Context, req *SubmitCommentRequest) (*SubmitCommentResponse, error) {
	in := engagement.SubmitInput{
		SubjectID:       req.SubjectID,
		Content:         req.Content,
		AuthorName:      render.PlainText(req.AuthorName),
		AuthorEmail:     req.AuthorEmail,
		ParentCommentID: req.ParentCommentID,
	}
	// Only an authenticated poster is recorded; visitor ids are not.
	if uid := mdValue(ctx, "user_id"); uid != "" {
		in.ActorID = &uid
	}
	created, err := s.Moderator.Submit(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SubmitCommentResponse{Comment: public(created)}, nil
}

func (s *Service) SetCommentStatus(ctx context.Context, req *SetCommentStatusRequest) (*SetCommentStatusResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	status := store.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	updated, err := s.Moderator.SetStatus(ctx, strings.TrimSpace(req.CommentID), status)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SetCommentStatusResponse{Comment: updated}, nil
}

func (s *Service) DeleteComment(ctx context.Context, req *DeleteCommentRequest) (*DeleteCommentResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.Moderator.Delete(ctx, strings.TrimSpace(req.CommentID)); err != nil {
		return nil, toStatus(err)
	}
	return &DeleteCommentResponse{}, nil
}

// GetGlobalEngagement returns the rollup. A failed rollup comes back as a
// zeroed report with available=false rather than an error.
func (s *Service) GetGlobalEngagement(ctx context.Context, _ *GetGlobalEngagementRequest) (*GetGlobalEngagementResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	rep, _ := s.Reports.GlobalEngagement(ctx)
	return &GetGlobalEngagementResponse{Report: rep}, nil
}
