package httpapi

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/metrics"
	"github.com/streamlaunch/platform/internal/app/services/uploads"
	"github.com/streamlaunch/platform/internal/app/services/users"
	"github.com/streamlaunch/platform/internal/auth"
	"github.com/streamlaunch/platform/internal/httputil"
)

// --- Auth --------------------------------------------------------------------

type nonceRequest struct {
	Wallet string `json:"wallet" validate:"required,min=8,max=128"`
}

func (r *nonceRequest) Normalize() {
	r.Wallet = strings.TrimSpace(r.Wallet)
}

func (s *Server) handleAuthNonce(r *http.Request, _ RequestContext, body interface{}) (interface{}, error) {
	req := body.(*nonceRequest)

	nonce, err := s.app.Nonces.Issue(r.Context(), req.Wallet)
	if err != nil {
		return nil, apierrors.Internal("issue nonce", err)
	}
	return map[string]string{"nonce": nonce}, nil
}

type loginRequest struct {
	Wallet    string `json:"wallet" validate:"required,min=8,max=128"`
	Nonce     string `json:"nonce" validate:"required"`
	Signature string `json:"signature" validate:"required,base64"`
}

func (r *loginRequest) Normalize() {
	r.Wallet = strings.TrimSpace(r.Wallet)
	r.Nonce = strings.TrimSpace(r.Nonce)
}

func (s *Server) handleAuthLogin(r *http.Request, _ RequestContext, body interface{}) (interface{}, error) {
	req := body.(*loginRequest)
	ctx := r.Context()

	ok, err := s.app.Nonces.Consume(ctx, req.Wallet, req.Nonce)
	if err != nil {
		return nil, apierrors.Internal("consume nonce", err)
	}
	if !ok {
		return nil, apierrors.BadRequest("invalid or expired nonce")
	}

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return nil, apierrors.BadRequest("signature must be base64")
	}
	if err := s.app.Verifier.Verify(req.Wallet, auth.ChallengeMessage(req.Wallet, req.Nonce), signature); err != nil {
		return nil, apierrors.Unauthorized("signature verification failed")
	}

	u, err := s.app.Users.UpsertByWallet(ctx, req.Wallet)
	if err != nil {
		return nil, err
	}

	token, err := s.app.Sessions.Mint(u.ID, u.Wallet)
	if err != nil {
		return nil, apierrors.Internal("mint session", err)
	}
	return map[string]interface{}{"token": token, "user": u}, nil
}

// --- Users -------------------------------------------------------------------

func (s *Server) handleGetUser(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	u, err := s.app.Users.GetByUsername(r.Context(), rc.Params["username"])
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"user": u}, nil
}

type updateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=32,alphanum"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=64"`
	Bio         *string `json:"bio" validate:"omitempty,max=280"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
}

func (r *updateProfileRequest) Normalize() {
	if r.Username != nil {
		lowered := strings.ToLower(strings.TrimSpace(*r.Username))
		r.Username = &lowered
	}
}

func (s *Server) handleUpdateProfile(r *http.Request, rc RequestContext, body interface{}) (interface{}, error) {
	req := body.(*updateProfileRequest)

	u, err := s.app.Users.UpdateProfile(r.Context(), rc.UserID, users.ProfileUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"user": u}, nil
}

// --- Posts -------------------------------------------------------------------

type createPostRequest struct {
	Body     string `json:"body" validate:"required,max=500"`
	MediaURL string `json:"mediaUrl" validate:"omitempty,url"`
}

func (r *createPostRequest) Normalize() {
	r.Body = strings.TrimSpace(r.Body)
}

func (s *Server) handleCreatePost(r *http.Request, rc RequestContext, body interface{}) (interface{}, error) {
	req := body.(*createPostRequest)

	p, err := s.app.Posts.Create(r.Context(), rc.UserID, req.Body, req.MediaURL)
	if err != nil {
		return nil, err
	}
	return Status(http.StatusCreated, p), nil
}

func (s *Server) handleListPosts(r *http.Request, _ RequestContext, _ interface{}) (interface{}, error) {
	ctx := r.Context()

	if author := r.URL.Query().Get("author"); author != "" {
		u, err := s.app.Users.GetByUsername(ctx, author)
		if err != nil {
			return nil, err
		}
		posts, err := s.app.Posts.ListByAuthor(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"posts": posts}, nil
	}

	posts, err := s.app.Posts.Recent(ctx, queryInt(r, "limit"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"posts": posts}, nil
}

func (s *Server) handleDeletePost(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	if err := s.app.Posts.Delete(r.Context(), rc.UserID, rc.Params["id"]); err != nil {
		return nil, err
	}
	return NoContent, nil
}

// --- Streams -----------------------------------------------------------------

type startStreamRequest struct {
	Title string `json:"title" validate:"omitempty,max=140"`
}

func (r *startStreamRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (s *Server) handleStartStream(r *http.Request, rc RequestContext, body interface{}) (interface{}, error) {
	req := body.(*startStreamRequest)

	result, err := s.app.Streams.Start(r.Context(), rc.UserID, req.Title)
	if err != nil {
		return nil, err
	}
	metrics.RecordStreamStarted()
	return result, nil
}

func (s *Server) handleEndStream(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	st, err := s.app.Streams.End(r.Context(), rc.UserID, rc.Params["id"])
	if err != nil {
		return nil, err
	}
	metrics.RecordStreamEnded()
	return map[string]interface{}{"stream": st.Sanitized()}, nil
}

func (s *Server) handleGetStream(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	view, err := s.app.Streams.Get(r.Context(), rc.Params["id"])
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Server) handleJoinStream(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	token, err := s.app.Streams.Join(r.Context(), rc.Params["id"], rc.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]string{"joinToken": token}, nil
}

type heartbeatRequest struct {
	ViewerID string `json:"viewerId" validate:"omitempty,max=64"`
}

func (s *Server) handleStreamHeartbeat(r *http.Request, rc RequestContext, body interface{}) (interface{}, error) {
	req := body.(*heartbeatRequest)

	viewerID := rc.UserID
	if viewerID == "" {
		viewerID = strings.TrimSpace(req.ViewerID)
	}
	if err := s.app.Streams.Heartbeat(r.Context(), rc.Params["id"], viewerID); err != nil {
		return nil, err
	}
	return NoContent, nil
}

func (s *Server) handleListStreams(r *http.Request, _ RequestContext, _ interface{}) (interface{}, error) {
	live, err := s.app.Streams.ListLive(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"streams": live}, nil
}

// --- Tokens ------------------------------------------------------------------

type createTokenRequest struct {
	Symbol     string  `json:"symbol" validate:"required,min=2,max=10,alphanum"`
	Name       string  `json:"name" validate:"required,max=64"`
	ImageURL   string  `json:"imageUrl" validate:"omitempty,url"`
	SupplyBase float64 `json:"supplyBase" validate:"gt=0"`
}

func (r *createTokenRequest) Normalize() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.Name = strings.TrimSpace(r.Name)
	if r.SupplyBase == 0 {
		r.SupplyBase = 1_000_000_000
	}
}

func (s *Server) handleCreateToken(r *http.Request, rc RequestContext, body interface{}) (interface{}, error) {
	req := body.(*createTokenRequest)

	t, err := s.app.Tokens.Create(r.Context(), rc.UserID, req.Symbol, req.Name, req.ImageURL, req.SupplyBase)
	if err != nil {
		return nil, err
	}
	return Status(http.StatusCreated, t), nil
}

func (s *Server) handleGetToken(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	t, err := s.app.Tokens.GetBySymbol(r.Context(), rc.Params["symbol"])
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Server) handleListTokens(r *http.Request, _ RequestContext, _ interface{}) (interface{}, error) {
	list, err := s.app.Tokens.List(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"tokens": list}, nil
}

func (s *Server) handleTokenCurve(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	curve, err := s.app.Tokens.Curve(r.Context(), rc.Params["symbol"])
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"curve": curve}, nil
}

// --- Feed --------------------------------------------------------------------

func (s *Server) handleFeed(r *http.Request, _ RequestContext, _ interface{}) (interface{}, error) {
	items, err := s.app.Feed.Home(r.Context(), queryInt(r, "limit"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"items": items}, nil
}

// --- Uploads -----------------------------------------------------------------

func (s *Server) handleUpload(r *http.Request, rc RequestContext, _ interface{}) (interface{}, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apierrors.BadRequest("multipart field \"file\" is required")
	}
	defer file.Close()

	data, err := httputil.ReadAllStrict(file, uploads.MaxUploadBytes)
	if err != nil {
		return nil, apierrors.BadRequest("file exceeds the upload size limit")
	}

	url, err := s.app.Uploads.Upload(r.Context(), rc.UserID, uploads.Category(rc.Params["category"]), header.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, err
	}
	return map[string]string{"url": url}, nil
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
