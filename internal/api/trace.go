// Code hand-written in place of protoc output. There is no .proto file; the
// service descriptor and client below are maintained directly.

package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/and161185/ayurtrace/internal/fhir"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ayurtrace.v1.Trace"

// TraceServer is implemented by the gRPC handlers.
type TraceServer interface {
	Authenticate(context.Context, *AuthenticateRequest) (*Session, error)
	RequestCode(context.Context, *RequestCodeRequest) (*Empty, error)
	VerifyCode(context.Context, *VerifyCodeRequest) (*Session, error)
	FederatedLogin(context.Context, *FederatedLoginRequest) (*Session, error)
	Register(context.Context, *RegisterRequest) (*Session, error)
	GetProfile(context.Context, *Empty) (*User, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error)
	ListMyBatches(context.Context, *Empty) (*BatchList, error)
	ListBatches(context.Context, *ListBatchesRequest) (*BatchList, error)
	GetBatch(context.Context, *GetBatchRequest) (*Batch, error)
	Recognize(context.Context, *RecognizeRequest) (*Recognition, error)
	PrepareSubmission(context.Context, *PrepareSubmissionRequest) (*Draft, error)
	SubmitBatch(context.Context, *SubmitBatchRequest) (*Batch, error)
	ReviewBatch(context.Context, *ReviewBatchRequest) (*Batch, error)
	UploadLabReport(context.Context, *UploadLabReportRequest) (*Batch, error)
	RecallBatch(context.Context, *RecallBatchRequest) (*Batch, error)
	BatchStats(context.Context, *Empty) (*BatchStats, error)
	MyStats(context.Context, *Empty) (*FarmerSummary, error)
	ExportFHIR(context.Context, *ExportFHIRRequest) (*fhir.Observation, error)
}

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	FullMethod("Authenticate"):   true,
	FullMethod("RequestCode"):    true,
	FullMethod("VerifyCode"):     true,
	FullMethod("FederatedLogin"): true,
	FullMethod("Register"):       true,
}

// FullMethod returns "/ayurtrace.v1.Trace/<name>".
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// ServiceDesc describes ayurtrace.v1.Trace for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TraceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Authenticate", TraceServer.Authenticate),
		unary("RequestCode", TraceServer.RequestCode),
		unary("VerifyCode", TraceServer.VerifyCode),
		unary("FederatedLogin", TraceServer.FederatedLogin),
		unary("Register", TraceServer.Register),
		unary("GetProfile", TraceServer.GetProfile),
		unary("UpdateProfile", TraceServer.UpdateProfile),
		unary("ListMyBatches", TraceServer.ListMyBatches),
		unary("ListBatches", TraceServer.ListBatches),
		unary("GetBatch", TraceServer.GetBatch),
		unary("Recognize", TraceServer.Recognize),
		unary("PrepareSubmission", TraceServer.PrepareSubmission),
		unary("SubmitBatch", TraceServer.SubmitBatch),
		unary("ReviewBatch", TraceServer.ReviewBatch),
		unary("UploadLabReport", TraceServer.UploadLabReport),
		unary("RecallBatch", TraceServer.RecallBatch),
		unary("BatchStats", TraceServer.BatchStats),
		unary("MyStats", TraceServer.MyStats),
		unary("ExportFHIR", TraceServer.ExportFHIR),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ayurtrace/v1/trace.json",
}

// RegisterTraceServer registers srv on s.
func RegisterTraceServer(s grpc.ServiceRegistrar, srv TraceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(TraceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if ic == nil {
				return call(srv.(TraceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TraceServer), ctx, req.(*Req))
			}
			return ic(ctx, in, info, handler)
		},
	}
}

// Client is a typed ayurtrace.v1.Trace client speaking the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[AuthenticateRequest, Session](ctx, c.cc, "Authenticate", in, opts)
}

func (c *Client) RequestCode(ctx context.Context, in *RequestCodeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[RequestCodeRequest, Empty](ctx, c.cc, "RequestCode", in, opts)
}

func (c *Client) VerifyCode(ctx context.Context, in *VerifyCodeRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[VerifyCodeRequest, Session](ctx, c.cc, "VerifyCode", in, opts)
}

func (c *Client) FederatedLogin(ctx context.Context, in *FederatedLoginRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[FederatedLoginRequest, Session](ctx, c.cc, "FederatedLogin", in, opts)
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[RegisterRequest, Session](ctx, c.cc, "Register", in, opts)
}

func (c *Client) GetProfile(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*User, error) {
	return invoke[Empty, User](ctx, c.cc, "GetProfile", in, opts)
}

func (c *Client) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[UpdateProfileRequest, User](ctx, c.cc, "UpdateProfile", in, opts)
}

func (c *Client) ListMyBatches(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*BatchList, error) {
	return invoke[Empty, BatchList](ctx, c.cc, "ListMyBatches", in, opts)
}

func (c *Client) ListBatches(ctx context.Context, in *ListBatchesRequest, opts ...grpc.CallOption) (*BatchList, error) {
	return invoke[ListBatchesRequest, BatchList](ctx, c.cc, "ListBatches", in, opts)
}

func (c *Client) GetBatch(ctx context.Context, in *GetBatchRequest, opts ...grpc.CallOption) (*Batch, error) {
	return invoke[GetBatchRequest, Batch](ctx, c.cc, "GetBatch", in, opts)
}

func (c *Client) Recognize(ctx context.Context, in *RecognizeRequest, opts ...grpc.CallOption) (*Recognition, error) {
	return invoke[RecognizeRequest, Recognition](ctx, c.cc, "Recognize", in, opts)
}

func (c *Client) PrepareSubmission(ctx context.Context, in *PrepareSubmissionRequest, opts ...grpc.CallOption) (*Draft, error) {
	return invoke[PrepareSubmissionRequest, Draft](ctx, c.cc, "PrepareSubmission", in, opts)
}

func (c *Client) SubmitBatch(ctx context.Context, in *SubmitBatchRequest, opts ...grpc.CallOption) (*Batch, error) {
	return invoke[SubmitBatchRequest, Batch](ctx, c.cc, "SubmitBatch", in, opts)
}

func (c *Client) ReviewBatch(ctx context.Context, in *ReviewBatchRequest, opts ...grpc.CallOption) (*Batch, error) {
	return invoke[ReviewBatchRequest, Batch](ctx, c.cc, "ReviewBatch", in, opts)
}

func (c *Client) UploadLabReport(ctx context.Context, in *UploadLabReportRequest, opts ...grpc.CallOption) (*Batch, error) {
	return invoke[UploadLabReportRequest, Batch](ctx, c.cc, "UploadLabReport", in, opts)
}

func (c *Client) RecallBatch(ctx context.Context, in *RecallBatchRequest, opts ...grpc.CallOption) (*Batch, error) {
	return invoke[RecallBatchRequest, Batch](ctx, c.cc, "RecallBatch", in, opts)
}

func (c *Client) BatchStats(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*BatchStats, error) {
	return invoke[Empty, BatchStats](ctx, c.cc, "BatchStats", in, opts)
}

func (c *Client) MyStats(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*FarmerSummary, error) {
	return invoke[Empty, FarmerSummary](ctx, c.cc, "MyStats", in, opts)
}

func (c *Client) ExportFHIR(ctx context.Context, in *ExportFHIRRequest, opts ...grpc.CallOption) (*fhir.Observation, error) {
	return invoke[ExportFHIRRequest, fhir.Observation](ctx, c.cc, "ExportFHIR", in, opts)
}
