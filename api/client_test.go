package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type staticTokens struct {
	token string
	calls int
}

func (s *staticTokens) Token(ctx context.Context) (string, bool) {
	s.calls++
	return s.token, s.token != ""
}

func newTestServer(t *testing.T, register func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestDoAttachesHeadersAndDecodes(t *testing.T) {
	var gotAuth, gotType, gotRequestID string
	server := newTestServer(t, func(r *gin.Engine) {
		r.POST("/events/:id/join", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			gotType = c.GetHeader("Content-Type")
			gotRequestID = c.GetHeader("X-Request-ID")
			c.JSON(200, gin.H{"message": "joined " + c.Param("id")})
		})
	})

	tokens := &staticTokens{token: "tok-1"}
	client := New(server.URL+"/", tokens)

	var out struct {
		Message string `json:"message"`
	}
	if err := client.Post(context.Background(), "/events/a1/join", map[string]string{}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotType)
	}
	if gotRequestID == "" {
		t.Fatalf("expected a request id header")
	}
	if out.Message != "joined a1" {
		t.Fatalf("unexpected body %q", out.Message)
	}
}

func TestDoReadsTokenOnEveryCall(t *testing.T) {
	var seen []string
	server := newTestServer(t, func(r *gin.Engine) {
		r.GET("/auth/profile", func(c *gin.Context) {
			seen = append(seen, c.GetHeader("Authorization"))
			c.JSON(200, gin.H{})
		})
	})

	tokens := &staticTokens{token: "first"}
	client := New(server.URL, tokens)
	ctx := context.Background()

	if err := client.Get(ctx, "/auth/profile", nil); err != nil {
		t.Fatalf("first get: %v", err)
	}
	tokens.token = ""
	if err := client.Get(ctx, "/auth/profile", nil); err != nil {
		t.Fatalf("second get: %v", err)
	}

	if len(seen) != 2 || seen[0] != "Bearer first" || seen[1] != "" {
		t.Fatalf("expected token then no token, got %v", seen)
	}
	if tokens.calls != 2 {
		t.Fatalf("expected token source consulted twice, got %d", tokens.calls)
	}
}

func TestDoSurfacesBackendMessage(t *testing.T) {
	server := newTestServer(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			c.JSON(401, gin.H{"message": "Mot de passe incorrect"})
		})
		r.GET("/events", func(c *gin.Context) {
			c.JSON(500, gin.H{"error": "database down"})
		})
		r.DELETE("/events/:id", func(c *gin.Context) {
			c.String(403, "nope")
		})
	})
	client := New(server.URL, nil)
	ctx := context.Background()

	err := client.Post(ctx, "/auth/login", map[string]string{"email": "a"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != 401 || apiErr.Message != "Mot de passe incorrect" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("expected IsUnauthorized")
	}

	err = client.Get(ctx, "/events", nil)
	if Message(err) != "database down" {
		t.Fatalf("expected error field fallback, got %q", Message(err))
	}

	err = client.Delete(ctx, "/events/a1", nil)
	if StatusOf(err) != http.StatusForbidden || Message(err) != http.StatusText(http.StatusForbidden) {
		t.Fatalf("expected status text fallback, got %d %q", StatusOf(err), Message(err))
	}
}

func TestDoTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := New(url, nil).Get(context.Background(), "/events", nil)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if StatusOf(err) != 0 {
		t.Fatalf("transport error must not carry a status")
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	server := newTestServer(t, func(r *gin.Engine) {
		r.GET("/events", func(c *gin.Context) { c.JSON(200, []any{}) })
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(server.URL, nil).Get(ctx, "/events", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
