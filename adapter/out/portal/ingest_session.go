// Package portal scrapes the school management portal. The portal has no
// API: authentication is a two-step PHP form handshake and data comes out
// of server-rendered HTML tables.
package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ingest_server/pkg/apperr"
	"ingest_server/pkg/httputil"
	"ingest_server/pkg/logger"
)

// Session holds the authenticated cookie set for one portal login.
type Session struct {
	cookies []*http.Cookie
}

// CookieHeader renders the session cookies for a request.
func (s *Session) CookieHeader() string {
	parts := make([]string, 0, len(s.cookies))
	for _, c := range s.cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// merge adds cookies, overwriting existing ones with the same name.
func (s *Session) merge(cookies []*http.Cookie) {
	for _, c := range cookies {
		replaced := false
		for i, existing := range s.cookies {
			if existing.Name == c.Name {
				s.cookies[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.cookies = append(s.cookies, c)
		}
	}
}

type Credentials struct {
	Username string
	Password string
	// Passfile is the content of the verification file the portal asks
	// for as a second factor.
	Passfile string
}

// Login runs the two-step portal handshake: credential POST, then upload
// of the verification file with the hidden fields echoed back. The portal
// answers both steps with redirects, so the client must not follow them.
func Login(ctx context.Context, baseURL string, creds Credentials) (*Session, error) {
	client := httputil.PortalClient()
	log := logger.WithField("component", "portal")

	// Step 1: credentials.
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	form.Set("button", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/user.php?action=doLogin", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.ExternalError("portal login", err)
	}
	defer resp.Body.Close()

	session := &Session{}
	session.merge(resp.Cookies())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.ExternalError("portal login", err)
	}

	idUsuari, maxFileSize, err := parseHiddenFields(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	// Step 2: verification file upload.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="userfile"; filename="archivo_paso.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(creds.Passfile)); err != nil {
		return nil, err
	}
	_ = mw.WriteField("id_usuari", idUsuari)
	_ = mw.WriteField("MAX_FILE_SIZE", maxFileSize)
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req2, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/user.php?action=controlArxiuPas", &buf)
	if err != nil {
		return nil, err
	}
	req2.Header.Set("Content-Type", mw.FormDataContentType())
	req2.Header.Set("Cookie", session.CookieHeader())

	resp2, err := client.Do(req2)
	if err != nil {
		return nil, apperr.ExternalError("portal login", err)
	}
	defer resp2.Body.Close()

	session.merge(resp2.Cookies())

	location := resp2.Header.Get("Location")
	body2, _ := io.ReadAll(resp2.Body)
	if !strings.Contains(location, "sumari") && !strings.Contains(string(body2), "sumari") {
		preview := string(body2)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, apperr.LoginFailed(fmt.Sprintf(
			"LOGIN_STEP2_FAILED: Expected redirect to /sumari/, got location=%s, status=%d. Body preview: %s",
			location, resp2.StatusCode, preview))
	}

	log.WithField("cookies", len(session.cookies)).Info("portal login completed")
	return session, nil
}

// parseHiddenFields extracts the hidden inputs the portal expects echoed
// back in step 2.
func parseHiddenFields(r io.Reader) (idUsuari, maxFileSize string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", apperr.ExternalError("portal login", err)
	}

	idUsuari, _ = doc.Find(`input[name="id_usuari"]`).Attr("value")
	maxFileSize, _ = doc.Find(`input[name="MAX_FILE_SIZE"]`).Attr("value")

	if idUsuari == "" || maxFileSize == "" {
		return "", "", apperr.LoginFailed(
			"LOGIN_STEP1_FIELDS_MISSING: Could not find id_usuari or MAX_FILE_SIZE hidden fields. Login may have failed.")
	}
	return idUsuari, maxFileSize, nil
}
