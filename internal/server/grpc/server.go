// Package grpcserver exposes the AyurTrace gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/and161185/ayurtrace/internal/api"
	"github.com/and161185/ayurtrace/internal/convert"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/fhir"
	"github.com/and161185/ayurtrace/internal/model"
	"github.com/and161185/ayurtrace/internal/service"
)

var _ api.TraceServer = (*Server)(nil)

// Server wires services into gRPC handlers. Callers are authenticated by
// AuthUnary; handlers check the caller's role.
type Server struct {
	auth    service.AuthService
	batches service.BatchService
}

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, batches service.BatchService) *Server {
	return &Server{auth: auth, batches: batches}
}

// --- Auth ---

// Authenticate checks a phone/user id and secret.
func (s *Server) Authenticate(ctx context.Context, req *api.AuthenticateRequest) (*api.Session, error) {
	sess, err := s.auth.Authenticate(ctx, req.Identifier, req.Secret, remoteIP(ctx))
	if err != nil {
		return nil, toStatus("authenticate", err)
	}
	return convert.ToAPISession(sess), nil
}

// RequestCode sends a one-time code to a registered contact.
func (s *Server) RequestCode(ctx context.Context, req *api.RequestCodeRequest) (*api.Empty, error) {
	if err := s.auth.RequestCode(ctx, req.Contact); err != nil {
		return nil, toStatus("request code", err)
	}
	return &api.Empty{}, nil
}

// VerifyCode exchanges a one-time code for a session.
func (s *Server) VerifyCode(ctx context.Context, req *api.VerifyCodeRequest) (*api.Session, error) {
	sess, err := s.auth.VerifyCode(ctx, req.Contact, req.Code, remoteIP(ctx))
	if err != nil {
		return nil, toStatus("verify code", err)
	}
	return convert.ToAPISession(sess), nil
}

// FederatedLogin exchanges an identity provider assertion for a session.
func (s *Server) FederatedLogin(ctx context.Context, req *api.FederatedLoginRequest) (*api.Session, error) {
	sess, err := s.auth.FederatedLogin(ctx, req.Assertion)
	if err != nil {
		return nil, toStatus("federated login", err)
	}
	return convert.ToAPISession(sess), nil
}

// Register creates a farmer account.
func (s *Server) Register(ctx context.Context, req *api.RegisterRequest) (*api.Session, error) {
	sess, err := s.auth.Register(ctx, req.Name, req.Phone, req.Secret)
	if err != nil {
		return nil, toStatus("register", err)
	}
	return convert.ToAPISession(sess), nil
}

// GetProfile returns the caller's profile.
func (s *Server) GetProfile(ctx context.Context, _ *api.Empty) (*api.User, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, toStatus("get profile", err)
	}
	out := convert.ToAPIUser(*u)
	return &out, nil
}

// UpdateProfile merges the given fields into the caller's profile.
func (s *Server) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.User, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.UpdateProfile(ctx, p.UserID, convert.FromAPIUserPatch(req))
	if err != nil {
		return nil, toStatus("update profile", err)
	}
	out := convert.ToAPIUser(*u)
	return &out, nil
}

// --- Batches ---

// ListMyBatches returns the calling farmer's batches, newest first.
func (s *Server) ListMyBatches(ctx context.Context, _ *api.Empty) (*api.BatchList, error) {
	p, err := authorize(ctx, model.ActionListOwnBatches)
	if err != nil {
		return nil, err
	}
	bs, err := s.batches.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, toStatus("list my batches", err)
	}
	return convert.ToAPIBatchList(bs), nil
}

// ListBatches returns all batches matching the filter.
func (s *Server) ListBatches(ctx context.Context, req *api.ListBatchesRequest) (*api.BatchList, error) {
	if _, err := authorize(ctx, model.ActionListAllBatches); err != nil {
		return nil, err
	}
	f, err := convert.FromAPIFilter(req)
	if err != nil {
		return nil, toStatus("list batches", err)
	}
	bs, err := s.batches.List(ctx, f)
	if err != nil {
		return nil, toStatus("list batches", err)
	}
	return convert.ToAPIBatchList(bs), nil
}

// GetBatch returns one batch. Farmers only see their own.
func (s *Server) GetBatch(ctx context.Context, req *api.GetBatchRequest) (*api.Batch, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.batches.Get(ctx, req.ID)
	if err != nil {
		return nil, toStatus("get batch", err)
	}
	if !p.Role.Can(model.ActionListAllBatches) && b.OwnerID != p.UserID {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return convert.ToAPIBatch(*b), nil
}

// Recognize labels a plant photo.
func (s *Server) Recognize(ctx context.Context, req *api.RecognizeRequest) (*api.Recognition, error) {
	if _, err := authorize(ctx, model.ActionSubmitBatch); err != nil {
		return nil, err
	}
	rec, err := s.batches.Recognize(ctx, req.Image)
	if err != nil {
		return nil, toStatus("recognize", err)
	}
	return convert.ToAPIRecognition(rec), nil
}

// PrepareSubmission recognizes the photo and resolves the address.
func (s *Server) PrepareSubmission(ctx context.Context, req *api.PrepareSubmissionRequest) (*api.Draft, error) {
	if _, err := authorize(ctx, model.ActionSubmitBatch); err != nil {
		return nil, err
	}
	d, err := s.batches.PrepareSubmission(ctx, req.Image, convert.Point(req.Latitude, req.Longitude))
	if err != nil {
		return nil, toStatus("prepare submission", err)
	}
	return convert.ToAPIDraft(d), nil
}

// SubmitBatch files a new batch owned by the caller.
func (s *Server) SubmitBatch(ctx context.Context, req *api.SubmitBatchRequest) (*api.Batch, error) {
	p, err := authorize(ctx, model.ActionSubmitBatch)
	if err != nil {
		return nil, err
	}
	b, err := s.batches.Submit(ctx, convert.FromAPISubmission(p.UserID, req))
	if err != nil {
		return nil, toStatus("submit batch", err)
	}
	return convert.ToAPIBatch(*b), nil
}

// ReviewBatch changes a batch's status. Recalls need the regulator role.
func (s *Server) ReviewBatch(ctx context.Context, req *api.ReviewBatchRequest) (*api.Batch, error) {
	upd, err := convert.FromAPIStatusUpdate(req)
	if err != nil {
		return nil, toStatus("review batch", err)
	}
	action := model.ActionReviewBatch
	if upd.Status == model.StatusRecalled {
		action = model.ActionRecallBatch
	}
	if _, err := authorize(ctx, action); err != nil {
		return nil, err
	}
	b, err := s.batches.Review(ctx, req.ID, upd)
	if err != nil {
		return nil, toStatus("review batch", err)
	}
	return convert.ToAPIBatch(*b), nil
}

// UploadLabReport attaches a report and sets Approved or Rejected.
func (s *Server) UploadLabReport(ctx context.Context, req *api.UploadLabReportRequest) (*api.Batch, error) {
	if _, err := authorize(ctx, model.ActionReviewBatch); err != nil {
		return nil, err
	}
	v, err := convert.FromAPIVerdict(req.Result)
	if err != nil {
		return nil, toStatus("upload lab report", err)
	}
	b, err := s.batches.UploadLabReport(ctx, req.ID, req.FileName, v, req.BaseVer)
	if err != nil {
		return nil, toStatus("upload lab report", err)
	}
	return convert.ToAPIBatch(*b), nil
}

// RecallBatch marks a batch recalled.
func (s *Server) RecallBatch(ctx context.Context, req *api.RecallBatchRequest) (*api.Batch, error) {
	if _, err := authorize(ctx, model.ActionRecallBatch); err != nil {
		return nil, err
	}
	b, err := s.batches.Recall(ctx, req.ID, req.BaseVer)
	if err != nil {
		return nil, toStatus("recall batch", err)
	}
	return convert.ToAPIBatch(*b), nil
}

// BatchStats returns per-status counters.
func (s *Server) BatchStats(ctx context.Context, _ *api.Empty) (*api.BatchStats, error) {
	if _, err := authorize(ctx, model.ActionViewStats); err != nil {
		return nil, err
	}
	st, err := s.batches.Stats(ctx)
	if err != nil {
		return nil, toStatus("batch stats", err)
	}
	return convert.ToAPIStats(st), nil
}

// MyStats totals the calling farmer's batches.
func (s *Server) MyStats(ctx context.Context, _ *api.Empty) (*api.FarmerSummary, error) {
	p, err := authorize(ctx, model.ActionListOwnBatches)
	if err != nil {
		return nil, err
	}
	sum, err := s.batches.Summary(ctx, p.UserID)
	if err != nil {
		return nil, toStatus("my stats", err)
	}
	return convert.ToAPISummary(sum), nil
}

// ExportFHIR renders a batch's lab result as a FHIR Observation.
func (s *Server) ExportFHIR(ctx context.Context, req *api.ExportFHIRRequest) (*fhir.Observation, error) {
	if _, err := authorize(ctx, model.ActionExportFHIR); err != nil {
		return nil, err
	}
	obs, err := s.batches.ExportFHIR(ctx, req.ID)
	if err != nil {
		return nil, toStatus("export fhir", err)
	}
	return obs, nil
}

func caller(ctx context.Context) (model.Principal, error) {
	p, ok := PrincipalFromCtx(ctx)
	if !ok {
		return model.Principal{}, status.Error(codes.Unauthenticated, "no auth")
	}
	return p, nil
}

func authorize(ctx context.Context, a model.Action) (model.Principal, error) {
	p, err := caller(ctx)
	if err != nil {
		return p, err
	}
	if !p.Role.Can(a) {
		return p, status.Error(codes.PermissionDenied, "forbidden")
	}
	return p, nil
}

// remoteIP returns the peer host without port so reconnects share limiter state.
func remoteIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// toStatus maps domain sentinels to gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrCodeInvalid):
		return status.Error(codes.Unauthenticated, errs.ErrCodeInvalid.Error())
	case errors.Is(err, errs.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, errs.ErrUserNotFound):
		return status.Error(codes.NotFound, errs.ErrUserNotFound.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrVersionConflict):
		return status.Error(codes.FailedPrecondition, "version conflict")
	case errors.Is(err, errs.ErrInvalidTransition):
		return status.Errorf(codes.FailedPrecondition, "%s: %v", op, err)
	case errors.Is(err, errs.ErrRecognitionUnavailable):
		return status.Error(codes.Unavailable, errs.ErrRecognitionUnavailable.Error())
	case errors.Is(err, errs.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: timeout", op)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}
