package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/galleryapp/gallery-server/internal/domain"
	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
	"github.com/galleryapp/gallery-server/internal/http/response"
	"github.com/galleryapp/gallery-server/internal/service"
	"github.com/galleryapp/gallery-server/internal/util"
)

// User-facing messages.
const (
	msgUploaded     = "Uploaded Successfully!"
	msgNotUploaded  = "Not Uploaded"
	msgDeleted      = "Image deleted successfully!"
	msgEmptyBody    = "Empty request body"
	msgInvalidJSON  = "Invalid JSON"
	msgTagAdded     = "Tag added"
	msgTagRemoved   = "Tag removed"
	msgFileTooLarge = "Not Uploaded: the file is too large"
)

// handleIndex renders the gallery listing.
// GET /?sort=newest|oldest|trending&category=all|<tag id>
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := q.Get("sort")
	category := q.Get("category")

	res, err := s.services.Gallery.ListImages(r.Context(), service.ListImagesRequest{
		Sort:     sort,
		Category: category,
		Now:      time.Now(),
	})
	if err != nil {
		s.log(r).Error("Failed to list images", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, s.errorText(err))
		return
	}

	data := s.newPage(w, r)
	data.Device = util.DeviceClass(r.UserAgent())
	data.Tags = res.Tags
	data.Sort = sort
	if data.Sort == "" {
		data.Sort = service.SortNewest
	}
	data.Category = category
	data.Images = make([]imageView, len(res.Images))
	for i, img := range res.Images {
		data.Images[i] = s.imageView(img)
	}

	s.render(w, r, http.StatusOK, "index", data)
}

func (s *Server) imageView(img *domain.Image) imageView {
	v := imageView{Image: img, URL: s.services.Gallery.MediaURL(img.PublicID)}
	v.ThumbURL = v.URL
	if img.ThumbnailID != "" {
		v.ThumbURL = s.services.Gallery.MediaURL(img.ThumbnailID)
	}
	return v
}

// handleUploadForm renders the upload form.
// GET /upload/
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	tags, err := s.services.Tags.ListTags(r.Context())
	if err != nil {
		s.log(r).Error("Failed to list tags", "error", err)
	}

	data := s.newPage(w, r)
	data.Tags = tags
	s.render(w, r, http.StatusOK, "upload", data)
}

// handleUpload accepts a multipart upload with fields title, image and tags.
// POST /upload/
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.addFlash(w, r, FlashError, msgFileTooLarge)
		} else {
			s.addFlash(w, r, FlashError, msgNotUploaded)
		}
		http.Redirect(w, r, "/upload/", http.StatusFound)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := service.UploadRequest{
		Title:  strings.TrimSpace(r.FormValue("title")),
		TagIDs: parseIDs(r.MultipartForm.Value["tags"]),
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		req.Filename = header.Filename
		if req.Data, err = io.ReadAll(file); err != nil {
			s.log(r).Warn("Failed to read upload", "error", err)
			s.addFlash(w, r, FlashError, msgNotUploaded)
			http.Redirect(w, r, "/upload/", http.StatusFound)
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		// The service reports the missing file.
	default:
		s.addFlash(w, r, FlashError, msgNotUploaded)
		http.Redirect(w, r, "/upload/", http.StatusFound)
		return
	}

	if _, err := s.services.Gallery.Upload(r.Context(), req); err != nil {
		msg := msgNotUploaded
		switch domainerrors.CodeOf(err) {
		case domainerrors.CodeValidation:
			if text := domainMessage(err); text != service.ErrNoFile.Message {
				msg = msgNotUploaded + ": " + text
			}
		case domainerrors.CodeUnavailable:
			msg = msgNotUploaded + ": media store not configured"
		default:
			s.log(r).Error("Upload failed", "error", err)
			if s.debug {
				msg = msgNotUploaded + ": " + err.Error()
			}
		}
		s.addFlash(w, r, FlashError, msg)
		http.Redirect(w, r, "/upload/", http.StatusFound)
		return
	}

	s.addFlash(w, r, FlashSuccess, msgUploaded)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleDelete deletes an image. Any authenticated user reaches the service;
// the administrator check happens there.
// POST /delete/{imageID}/
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "Image not found")
		return
	}

	res, err := s.services.Gallery.DeleteImage(r.Context(), imageID, currentUser(r.Context()))
	switch {
	case err == nil:
	case errors.Is(err, domainerrors.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "Image not found")
		return
	case errors.Is(err, domainerrors.ErrPermissionDenied):
		s.addFlash(w, r, FlashError, domainMessage(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	default:
		s.log(r).Error("Delete failed", "image_id", imageID, "error", err)
		s.addFlash(w, r, FlashError, "Error deleting image: "+s.errorText(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if res.Warning != "" {
		s.addFlash(w, r, FlashWarning, res.Warning)
	} else {
		s.addFlash(w, r, FlashSuccess, msgDeleted)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleSignupForm renders the signup form.
// GET /signup/
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup", s.newPage(w, r))
}

// handleSignup creates an account.
// POST /signup/
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	req := service.SignupRequest{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}

	if _, err := s.services.Auth.Signup(r.Context(), req); err != nil {
		code := domainerrors.CodeOf(err)
		if code != domainerrors.CodeValidation && code != domainerrors.CodeAlreadyExists {
			s.log(r).Error("Signup failed", "error", err)
		}

		data := s.newPage(w, r)
		data.Flashes = append(data.Flashes, Flash{Level: FlashError, Text: s.errorText(err)})
		data.Form["username"] = req.Username
		data.Form["email"] = req.Email
		s.render(w, r, http.StatusOK, "signup", data)
		return
	}

	s.addFlash(w, r, FlashSuccess, service.MsgAccountCreated)
	http.Redirect(w, r, "/login/", http.StatusFound)
}

// handleLoginForm renders the login form.
// GET /login/
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(w, r)
	data.Next = safeNext(r.URL.Query().Get("next"))
	s.render(w, r, http.StatusOK, "login", data)
}

// handleLogin starts a session. Failures redirect back to the login page
// without a message.
// POST /login/
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.PostFormValue("next"))

	res, err := s.services.Auth.Login(r.Context(), service.LoginRequest{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrInvalidCredentials) {
			s.log(r).Error("Login failed", "error", err)
		}
		http.Redirect(w, r, loginURL(next), http.StatusFound)
		return
	}

	s.cookies.setSession(w, res.Token, res.Session.ExpiresAt)
	s.addFlash(w, r, FlashSuccess, service.MsgLoggedIn)

	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// handleLogout ends the session, if any.
// GET /logout_page/
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := s.services.Auth.Logout(r.Context(), cookie.Value); err != nil {
			s.log(r).Warn("Failed to end session", "error", err)
		}
	}
	s.cookies.clearSession(w)
	s.addFlash(w, r, FlashSuccess, service.MsgLoggedOut)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleToggleTag adds or removes a tag on an image.
// POST /toggle-tag/ with {"image_id", "tag_id", "action"}.
// Non-administrators are redirected to the login page rather than sent JSON.
func (s *Server) handleToggleTag(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if !user.IsAdmin() {
		http.Redirect(w, r, loginURL("/toggle-tag/"), http.StatusFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		response.BadRequest(w, msgInvalidJSON, s.log(r))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		response.BadRequest(w, msgEmptyBody, s.log(r))
		return
	}

	var req service.ToggleTagRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.BadRequest(w, msgInvalidJSON, s.log(r))
		return
	}

	if err := s.services.Gallery.ToggleTag(r.Context(), req, user); err != nil {
		response.HandleError(w, err, s.debug, s.log(r))
		return
	}

	msg := msgTagAdded
	if req.Action == service.ActionRemove {
		msg = msgTagRemoved
	}
	response.Success(w, msg, s.log(r))
}

// errorText is the message shown to users for err. Domain errors show their
// own message; anything else is generic unless debug is on.
func (s *Server) errorText(err error) string {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
		return domainErr.Message
	}
	if s.debug {
		return err.Error()
	}
	return "an internal error occurred"
}

func domainMessage(err error) string {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// safeNext returns next when it is a local absolute path, otherwise "".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

// loginURL is the login page, returning to next afterwards.
func loginURL(next string) string {
	if next = safeNext(next); next == "" {
		return "/login/"
	}
	return "/login/?next=" + url.QueryEscape(next)
}

// parseIDs parses decimal ids, skipping anything unparseable.
func parseIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
