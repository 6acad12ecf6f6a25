package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"cityconnect/api"
)

func newNominatim(t *testing.T) *Nominatim {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/search", func(c *gin.Context) {
		if c.Query("format") != "json" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format"})
			return
		}
		switch c.Query("q") {
		case "Lyon, France":
			c.JSON(http.StatusOK, []gin.H{{"lat": "45.7578137", "lon": "4.8320114", "display_name": "Lyon"}})
		case "broken":
			c.JSON(http.StatusOK, []gin.H{{"lat": "north", "lon": "4.8"}})
		default:
			c.JSON(http.StatusOK, []gin.H{})
		}
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return NewNominatim(api.New(server.URL, nil))
}

func TestNominatimLookup(t *testing.T) {
	g := newNominatim(t)
	ctx := context.Background()

	got, err := g.Lookup(ctx, "Lyon, France")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != (Coordinate{45.7578137, 4.8320114}) {
		t.Fatalf("unexpected coordinate %v", got)
	}

	if _, err := g.Lookup(ctx, "Atlantis"); !errors.Is(err, ErrPlaceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := g.Lookup(ctx, "  "); !errors.Is(err, ErrPlaceNotFound) {
		t.Fatalf("expected not found for blank, got %v", err)
	}
	if _, err := g.Lookup(ctx, "broken"); err == nil {
		t.Fatalf("expected malformed coordinates error")
	}
}
