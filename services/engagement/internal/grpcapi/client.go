package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a typed EngagementService client. Every call uses the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) React(ctx context.Context, req *ReactRequest, opts ...grpc.CallOption) (*ReactResponse, error) {
	return invoke[ReactResponse](ctx, c.cc, "React", req, opts)
}

func (c *Client) GetStats(ctx context.Context, req *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	return invoke[GetStatsResponse](ctx, c.cc, "GetStats", req, opts)
}

func (c *Client) ListComments(ctx context.Context, req *ListCommentsRequest, opts ...grpc.CallOption) (*ListCommentsResponse, error) {
	return invoke[ListCommentsResponse](ctx, c.cc, "ListComments", req, opts)
}

func (c *Client) SubmitComment(ctx context.Context, req *SubmitCommentRequest, opts ...grpc.CallOption) (*SubmitCommentResponse, error) {
	return invoke[SubmitCommentResponse](ctx, c.cc, "SubmitComment", req, opts)
}

func (c *Client) SetCommentStatus(ctx context.Context, req *SetCommentStatusRequest, opts ...grpc.CallOption) (*SetCommentStatusResponse, error) {
	return invoke[SetCommentStatusResponse](ctx, c.cc, "SetCommentStatus", req, opts)
}

func (c *Client) DeleteComment(ctx context.Context, req *DeleteCommentRequest, opts ...grpc.CallOption) (*DeleteCommentResponse, error) {
	return invoke[DeleteCommentResponse](ctx, c.cc, "DeleteComment", req, opts)
}

func (c *Client) GetGlobalEngagement(ctx context.Context, req *GetGlobalEngagementRequest, opts ...grpc.CallOption) (*GetGlobalEngagementResponse, error) {
	return invoke[GetGlobalEngagementResponse](ctx, c.cc, "GetGlobalEngagement", req, opts)
}
