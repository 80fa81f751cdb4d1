package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequestLogger adapts the net/http RequestLogger to Gin.
func GinRequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		RequestLogger(next).ServeHTTP(c.Writer, c.Request)
	}
}
