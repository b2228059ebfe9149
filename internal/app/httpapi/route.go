package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/domain/user"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/internal/httputil"
	"github.com/streamlaunch/platform/pkg/logger"
)

// maxBodyBytes bounds any JSON request body.
const maxBodyBytes = 1 << 20 // 1 MiB

// sessionCookie is the cookie the web client stores its session token in.
// The Authorization header takes precedence when both are present.
const sessionCookie = "session"

// AuthPolicy controls whether a route demands a caller identity.
type AuthPolicy int

const (
	// AuthOptional resolves an identity when one is presented; the handler
	// runs either way.
	AuthOptional AuthPolicy = iota
	// AuthRequired aborts with 401 before the handler when no valid
	// identity resolves.
	AuthRequired
)

// AuthMode controls how much of the identity is resolved.
type AuthMode int

const (
	// AuthIDOnly verifies the session token locally and yields only the
	// caller ID. No store read happens.
	AuthIDOnly AuthMode = iota
	// AuthFull additionally loads the caller's profile row.
	AuthFull
)

// RouteConfig declares how the wrapper treats a route before its handler
// runs.
type RouteConfig struct {
	Auth     AuthPolicy
	AuthMode AuthMode
	// Body, when non-nil, returns a fresh request struct. The raw body is
	// decoded into it, normalized, and validated before the handler runs.
	Body func() interface{}
}

// RequestContext is what a handler learns about the request beyond its body.
type RequestContext struct {
	// UserID is the authenticated caller's ID, or "" when anonymous.
	UserID string
	// User is the full profile, set only under AuthFull with a valid session.
	User *user.User
	// Params holds the route's path variables, always present.
	Params map[string]string
}

// HandlerFunc is a route's business function. It returns the response value
// (wrapped as 200 unless it is a Status) or a domain error.
type HandlerFunc func(r *http.Request, rc RequestContext, body interface{}) (interface{}, error)

// Normalizer lets a request type apply defaults and canonicalization after
// decoding, before validation.
type Normalizer interface {
	Normalize()
}

// statusResult carries an explicit response status out of a handler.
type statusResult struct {
	code  int
	value interface{}
}

// Status wraps a handler result with an explicit HTTP status code.
func Status(code int, v interface{}) interface{} {
	return statusResult{code: code, value: v}
}

// NoContent is the handler result for an intentionally empty 204 response.
var NoContent = Status(http.StatusNoContent, nil)

// route builds the uniform request pipeline around handler: resolve auth,
// validate the body, run the handler, map errors, shape the response. The
// flow is strictly linear and the handler never sees raw unvalidated input.
func (s *Server) route(cfg RouteConfig, handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rc := RequestContext{Params: mux.Vars(r)}
		if rc.Params == nil {
			rc.Params = map[string]string{}
		}

		userID, u, err := s.resolveIdentity(r, cfg.AuthMode)
		if err != nil && cfg.Auth == AuthRequired {
			s.respondError(w, r, err)
			return
		}
		if userID == "" && cfg.Auth == AuthRequired {
			s.respondError(w, r, apierrors.Unauthorized(""))
			return
		}
		rc.UserID = userID
		rc.User = u
		if userID != "" {
			r = r.WithContext(logger.WithUserID(ctx, userID))
		}

		var body interface{}
		if cfg.Body != nil {
			body = cfg.Body()
			if err := s.decodeBody(r, body); err != nil {
				s.respondError(w, r, err)
				return
			}
		}

		result, err := handler(r, rc, body)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respond(w, result)
	}
}

// resolveIdentity derives the caller identity from the session token, if
// any. A missing token is anonymous, not an error; an invalid token is an
// error so required routes reject it distinctly.
func (s *Server) resolveIdentity(r *http.Request, mode AuthMode) (string, *user.User, error) {
	token := extractSessionToken(r)
	if token == "" {
		return "", nil, nil
	}

	claims, err := s.app.Sessions.Verify(token)
	if err != nil {
		return "", nil, err
	}

	if mode == AuthIDOnly {
		return claims.UserID, nil, nil
	}

	u, err := s.app.UserStore.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Verified token for a deleted account resolves to no identity.
			return "", nil, nil
		}
		return "", nil, apierrors.Internal("resolve identity", err)
	}
	return u.ID, &u, nil
}

func extractSessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// decodeBody parses, normalizes, and validates the request body into dst.
// Unknown fields are dropped; validation failures surface the first
// violation.
func (s *Server) decodeBody(r *http.Request, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apierrors.BadRequest("unable to read request body")
	}
	if int64(len(raw)) > maxBodyBytes {
		return apierrors.BadRequest("request body too large")
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return apierrors.BadRequest("invalid JSON body")
	}

	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}

	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return apierrors.BadRequest(fmt.Sprintf("%s failed validation on %q", jsonFieldName(first), first.Tag()))
		}
		return apierrors.BadRequest("invalid request body")
	}
	return nil
}

func jsonFieldName(fe validator.FieldError) string {
	// Namespace is Type.Field; report just the field, lowercased to match
	// the wire casing.
	field := fe.Field()
	if field == "" {
		return "body"
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respond writes the success envelope: 200 with the bare result, or the
// explicit status the handler asked for.
func (s *Server) respond(w http.ResponseWriter, result interface{}) {
	if sr, ok := result.(statusResult); ok {
		if sr.value == nil {
			w.WriteHeader(sr.code)
			return
		}
		httputil.WriteJSON(w, sr.code, sr.value)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// respondError maps a domain error to its declared status and code, and
// coerces anything unrecognized to a 500 whose detail is logged but never
// sent to the caller.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := apierrors.GetServiceError(err)
	if serviceErr == nil {
		s.log.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("unhandled error")
		serviceErr = apierrors.Internal("internal server error", err)
	} else if serviceErr.HTTPStatus >= http.StatusInternalServerError {
		s.log.WithContext(r.Context()).WithError(serviceErr).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}

	httputil.WriteErrorResponse(w, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
}
