package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kitbase/authsync/internal/flows"
	"go.uber.org/zap"
)

// fragmentShim re-posts a URL hash fragment as query parameters. Implicit
// flow tokens arrive in the fragment, which never reaches the server; a
// browser round-trip is the only way to read them.
const fragmentShim = `<!DOCTYPE html>
<html>
<head><title>Signing you in...</title></head>
<body>
<p>Signing you in...</p>
<script>
  var h = window.location.hash;
  var sep = window.location.search ? "&" : "?";
  var target = window.location.pathname + window.location.search + sep + "from_fragment=1";
  if (h && h.length > 1) {
    target += "&" + h.substring(1);
  }
  window.location.replace(target);
</script>
</body>
</html>`

// CallbackHandler is the deep-link entry point for confirmation, recovery
// and OAuth redirects.
type CallbackHandler struct {
	flow   *flows.CallbackFlow
	logger *zap.Logger
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(flow *flows.CallbackFlow, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{flow: flow, logger: logger}
}

// Handle processes a callback URL. Query payloads are handled directly;
// bare requests get the fragment shim once, then fall through to the
// bounded session poll.
func (h *CallbackHandler) Handle(c *gin.Context) {
	q := c.Request.URL.Query()
	hasPayload := q.Get("code") != "" || q.Get("access_token") != ""

	if !hasPayload && q.Get("from_fragment") == "" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragmentShim))
		return
	}

	// The shim moved any fragment tokens into the query string, so the full
	// request URL is now a parseable deep link.
	rawURL := c.Request.URL.String()
	sess, err := h.flow.Handle(c.Request.Context(), rawURL)
	if err != nil {
		h.logger.Warn("Deep-link callback failed", zap.Error(err))
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in",
		"user":    sess.User,
	})
}
