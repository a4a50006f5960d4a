package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/cors"
)

// CORSHandler returns the CORS middleware, allowing the frontend origins
// listed in CORS_ALLOWED_ORIGINS (comma-separated) or, absent that env
// var, only http://localhost:3000.
func CORSHandler() func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000"}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler
}
