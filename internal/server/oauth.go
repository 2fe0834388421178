package server

import (
	"crypto/subtle"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/tunesmith/internal/session"
	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the implicit-grant callback.
//
// Spotify returns the access token in the URL fragment, which never reaches the server, so GET /callback
// serves a page that reads the fragment and posts it to /callback/token. The posted token is checked against
// the expected state and handed to the session.
//
// A single-use handler (the CLI login) accepts one token, sends it through [OAuthHandler.Result] and
// rejects later callbacks. A reusable handler (the web server) accepts any number of logins.
type OAuthHandler struct {
	state       string
	session     *session.Session
	singleUse   bool
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler expecting state. sess may be nil when the caller only reads [OAuthHandler.Result].
func NewOAuthHandler(state string, sess *session.Session, singleUse bool) *OAuthHandler {
	return &OAuthHandler{
		state:      state,
		session:    sess,
		singleUse:  singleUse,
		resultChan: make(chan OAuthResult, 1),
	}
}

// State returns the state value the authorize URL must carry.
func (h *OAuthHandler) State() string {
	return h.state
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback", "POST /callback/token"}
}

// ServeHTTP dispatches to the callback page or the token endpoint.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/callback":
		h.serveCallbackPage(w, r)
	case "/callback/token":
		h.serveToken(w, r)
	default:
		http.NotFound(w, r)
	}
}

// tokenRequest is what the callback page posts.
type tokenRequest struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
	State       string `json:"state"`
}

func (h *OAuthHandler) serveCallbackPage(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		if h.claim() {
			h.Send(OAuthResult{err: fmt.Errorf("authorization failed: %s", errParam)})
		}
		w.WriteHeader(http.StatusBadRequest)
		h.renderPage(w, pageData{Title: "Authorization Failed", Message: "Spotify reported: " + errParam})
		return
	}

	h.renderPage(w, pageData{Title: "Finishing sign-in…", Script: true, Redirect: !h.singleUse})
}

func (h *OAuthHandler) serveToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.State), []byte(h.state)) != 1 {
		if h.claim() {
			h.Send(OAuthResult{err: fmt.Errorf("invalid state parameter")})
		}
		jsonError(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.AccessToken) == "" {
		jsonError(w, "Missing access token", http.StatusBadRequest)
		return
	}

	if !h.claim() {
		jsonError(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	expiresIn := parseExpiresIn(req.ExpiresIn)
	token := &oauth2.Token{AccessToken: req.AccessToken, TokenType: "Bearer"}
	if expiresIn > 0 {
		token.Expiry = time.Now().Add(expiresIn)
	}

	if h.session != nil {
		if err := h.session.Acquire(req.AccessToken, expiresIn); err != nil {
			h.Send(OAuthResult{err: err})
			jsonError(w, "Failed to store access token", http.StatusInternalServerError)
			return
		}
	}

	h.Send(OAuthResult{Token: token})
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// claim reports whether this callback may proceed. Single-use handlers allow exactly one.
func (h *OAuthHandler) claim() bool {
	if !h.singleUse {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.callbackHit {
		return false
	}
	h.callbackHit = true
	return true
}

// parseExpiresIn reads the fragment's expires_in seconds. Unknown or invalid values mean no known expiry.
func parseExpiresIn(s string) time.Duration {
	var secs int
	if _, err := fmt.Sscan(s, &secs); err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

type pageData struct {
	Title    string
	Message  string
	Script   bool
	Redirect bool
}

func (h *OAuthHandler) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = callbackPage.Execute(w, data)
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1 id="title">{{.Title}}</h1>
        <p id="message">{{.Message}}</p>
    </div>
{{- if .Script}}
    <script>
    (function () {
        var params = new URLSearchParams(window.location.hash.slice(1));
        var title = document.getElementById("title");
        var message = document.getElementById("message");
        fetch("/callback/token", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({
                access_token: params.get("access_token") || "",
                expires_in: params.get("expires_in") || "",
                state: params.get("state") || ""
            })
        }).then(function (res) {
            return res.json().then(function (body) {
                if (!res.ok) { throw new Error(body.error || "Authorization failed"); }
                title.textContent = "✓ Authorization Successful";
{{- if .Redirect}}
                window.location.replace("/");
{{- else}}
                message.textContent = "You can close this window and return to the terminal.";
{{- end}}
            });
        }).catch(function (err) {
            title.textContent = "Authorization Failed";
            message.textContent = err.message;
        });
    })();
    </script>
{{- end}}
</body>
</html>
`))
