package grpcapi

import (
	"context"
	"net"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/store"
)

func ctxWithUser(userID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "user_id", userID)
}

func ctxWithAdmin() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "user_id", "root", "role", "admin")
}

func ctxWithVisitor(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "visitor_id", token)
}

type harness struct {
	client *Client
	conn   *grpc.ClientConn
	srv    *grpc.Server
	svc    *Service
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, policy engagement.ReactionPolicy, sp engagement.StatusPolicy) *harness {
	t.Helper()
	rs := store.NewInMemoryReactionStore()
	cs := store.NewInMemoryCommentStore()
	ss := store.NewInMemorySubjectStore()
	svc := &Service{
		Reactions: engagement.NewReactions(rs, policy, nil),
		Moderator: engagement.NewModerator(cs, sp, nil),
		Reports:   engagement.NewReporter(rs, cs, ss),
		Visitors:  auth.VisitorHasher{Key: []byte("k")},
	}

	lis := bufconn.Listen(1 << 20)
	core, logs := observer.New(zap.InfoLevel)
	srv, _ := NewServer(svc, zap.New(core))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &harness{client: NewClient(conn), conn: conn, srv: srv, svc: svc, logs: logs}
}

func reason(t *testing.T, err error) (codes.Code, string) {
	t.Helper()
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return st.Code(), info.GetReason()
		}
	}
	return st.Code(), ""
}

func TestReact_OverTheWire(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, nil)
	ctx := ctxWithUser("user-a")

	resp, err := h.client.React(ctx, &ReactRequest{SubjectID: "post-1", Reaction: "like"})
	if err != nil {
		t.Fatalf("React: %v", err)
	}
	if resp.Action != engagement.ActionCreated || resp.Stats.Likes != 1 || resp.Stats.CallerReaction != engagement.CallerLike {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = h.client.React(ctx, &ReactRequest{SubjectID: "post-1", Reaction: "dislike"})
	if err != nil {
		t.Fatalf("React flip: %v", err)
	}
	if resp.Action != engagement.ActionUpdated || resp.Stats.Dislikes != 1 {
		t.Fatalf("unexpected flip %+v", resp)
	}

	stats, err := h.client.GetStats(context.Background(), &GetStatsRequest{SubjectID: "post-1"})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Stats.NetScore != -1 || stats.Stats.CallerReaction != engagement.CallerNone {
		t.Fatalf("unexpected stats %+v", stats.Stats)
	}
}

func TestReact_Errors(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, nil)

	_, err := h.client.React(context.Background(), &ReactRequest{SubjectID: "post-1", Reaction: "like"})
	if code, r := reason(t, err); code != codes.Unauthenticated || r != "UNAUTHENTICATED" {
		t.Fatalf("expected Unauthenticated, got %v %q", code, r)
	}
	_, err = h.client.React(ctxWithVisitor("v-1"), &ReactRequest{SubjectID: "post-1", Reaction: "like"})
	if code, _ := reason(t, err); code != codes.Unauthenticated {
		t.Fatalf("visitor must be rejected by default, got %v", code)
	}
	_, err = h.client.React(ctxWithUser("user-a"), &ReactRequest{SubjectID: "post-1", Reaction: "meh"})
	if code, r := reason(t, err); code != codes.InvalidArgument || r != "INVALID_REACTION" {
		t.Fatalf("expected INVALID_REACTION, got %v %q", code, r)
	}
}

func TestReact_AnonymousVisitor(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{AllowAnonymous: true}, nil)

	resp, err := h.client.React(ctxWithVisitor("v-1"), &ReactRequest{SubjectID: "post-1", Reaction: "like"})
	if err != nil {
		t.Fatalf("React: %v", err)
	}
	if resp.Stats.CallerReaction != engagement.CallerLike {
		t.Fatalf("unexpected stats %+v", resp.Stats)
	}
}

func TestSubmitAndListComments(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, engagement.AutoApprove)
	email := "ann@example.com"

	created, err := h.client.SubmitComment(ctxWithUser("user-a"), &SubmitCommentRequest{
		SubjectID: "post-1", Content: "hello", AuthorName: "Ann", AuthorEmail: &email,
	})
	if err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}
	if created.Comment.Status != store.StatusApproved || created.Comment.AuthorEmail != nil {
		t.Fatalf("unexpected created comment %+v", created.Comment)
	}

	parent := created.Comment.ID
	if _, err := h.client.SubmitComment(context.Background(), &SubmitCommentRequest{
		SubjectID: "post-1", Content: "reply", AuthorName: "Bob", ParentCommentID: &parent,
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	list, err := h.client.ListComments(context.Background(), &ListCommentsRequest{SubjectID: "post-1"})
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(list.Comments) != 1 || len(list.Comments[0].Replies) != 1 {
		t.Fatalf("unexpected thread %+v", list.Comments)
	}
	if list.Comments[0].AuthorEmail != nil || list.Comments[0].ActorID != nil {
		t.Fatal("public listing must hide contact details")
	}

	_, err = h.client.SubmitComment(context.Background(), &SubmitCommentRequest{SubjectID: "post-1", Content: " ", AuthorName: "Ann"})
	st, _ := status.FromError(err)
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}
	var field string
	for _, d := range st.Details() {
		if bad, ok := d.(*errdetails.BadRequest); ok && len(bad.GetFieldViolations()) > 0 {
			field = bad.GetFieldViolations()[0].GetField()
		}
	}
	if field != "content" {
		t.Fatalf("expected content field violation, got %q", field)
	}
}

func TestSubmitComment_ActorAndAuthorName(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{AllowAnonymous: true}, engagement.AutoApprove)

	visitor, err := h.client.SubmitComment(ctxWithVisitor("browser-token"), &SubmitCommentRequest{
		SubjectID: "post-1", Content: "hi", AuthorName: "<b>Ann</b>",
	})
	if err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}
	if visitor.Comment.AuthorName != "Ann" {
		t.Fatalf("expected markup stripped from author name, got %q", visitor.Comment.AuthorName)
	}

	member, err := h.client.SubmitComment(ctxWithUser("user-a"), &SubmitCommentRequest{
		SubjectID: "post-1", Content: "hello", AuthorName: "Bob",
	})
	if err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}

	all, err := h.client.ListComments(ctxWithAdmin(), &ListCommentsRequest{SubjectID: "post-1", IncludeAll: true})
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	actors := map[string]*string{}
	for _, n := range all.Comments {
		actors[n.ID] = n.ActorID
	}
	if a := actors[visitor.Comment.ID]; a != nil {
		t.Fatalf("visitor must not be recorded as actor, got %q", *a)
	}
	if a := actors[member.Comment.ID]; a == nil || *a != "user-a" {
		t.Fatalf("expected user-a recorded, got %v", a)
	}
}

func TestAdminMethods(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, engagement.HoldForReview)

	created, err := h.client.SubmitComment(context.Background(), &SubmitCommentRequest{SubjectID: "post-1", Content: "hi", AuthorName: "Ann"})
	if err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}
	id := created.Comment.ID

	_, err = h.client.SetCommentStatus(ctxWithUser("user-a"), &SetCommentStatusRequest{CommentID: id, Status: "approved"})
	if code, _ := reason(t, err); code != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", code)
	}
	_, err = h.client.ListComments(context.Background(), &ListCommentsRequest{SubjectID: "post-1", IncludeAll: true})
	if code, _ := reason(t, err); code != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", code)
	}

	all, err := h.client.ListComments(ctxWithAdmin(), &ListCommentsRequest{SubjectID: "post-1", IncludeAll: true})
	if err != nil || len(all.Comments) != 1 {
		t.Fatalf("admin listing: %+v %v", all, err)
	}

	updated, err := h.client.SetCommentStatus(ctxWithAdmin(), &SetCommentStatusRequest{CommentID: id, Status: "approved"})
	if err != nil || updated.Comment.Status != store.StatusApproved {
		t.Fatalf("SetCommentStatus: %+v %v", updated, err)
	}
	_, err = h.client.SetCommentStatus(ctxWithAdmin(), &SetCommentStatusRequest{CommentID: id, Status: "hidden"})
	if code, r := reason(t, err); code != codes.InvalidArgument || r != "INVALID_STATUS" {
		t.Fatalf("expected INVALID_STATUS, got %v %q", code, r)
	}

	if _, err := h.client.DeleteComment(ctxWithAdmin(), &DeleteCommentRequest{CommentID: id}); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	_, err = h.client.DeleteComment(ctxWithAdmin(), &DeleteCommentRequest{CommentID: id})
	if code, r := reason(t, err); code != codes.NotFound || r != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v %q", code, r)
	}

	rep, err := h.client.GetGlobalEngagement(ctxWithAdmin(), &GetGlobalEngagementRequest{})
	if err != nil {
		t.Fatalf("GetGlobalEngagement: %v", err)
	}
	if !rep.Report.Available || rep.Report.TotalComments != 0 {
		t.Fatalf("unexpected report %+v", rep.Report)
	}
}

func TestHealthService(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, nil)
	for _, name := range []string{"", ServiceName} {
		resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: name})
		if err != nil {
			t.Fatalf("health check %q: %v", name, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("%q: expected SERVING, got %v", name, resp.GetStatus())
		}
	}
}

func TestNewServer_RegisteredServices(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, nil)
	info := h.srv.GetServiceInfo()
	if len(info) != 2 {
		t.Fatalf("expected engagement and health only, got %v", info)
	}
	if _, ok := info[ServiceName]; !ok {
		t.Fatalf("missing %s", ServiceName)
	}
	if _, ok := info[healthpb.Health_ServiceDesc.ServiceName]; !ok {
		t.Fatal("missing health service")
	}
}

func TestLoggingInterceptor(t *testing.T) {
	h := newHarness(t, engagement.ReactionPolicy{}, nil)
	_, _ = h.client.React(context.Background(), &ReactRequest{SubjectID: "post-1", Reaction: "like"})

	entries := h.logs.FilterMessage("grpc request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "/"+ServiceName+"/React" || fields["code"] != codes.Unauthenticated.String() {
		t.Fatalf("unexpected fields %v", fields)
	}
}
