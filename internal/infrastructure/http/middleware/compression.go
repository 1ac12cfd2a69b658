package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// brotliWriter compresses everything written through the gin response writer
type brotliWriter struct {
	gin.ResponseWriter
	writer *brotli.Writer
	wrote  bool
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	w.Header().Del("Content-Length")
	w.wrote = true
	return w.writer.Write(b)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *brotliWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

// Compression brotli-encodes responses for clients that accept br
func (m *Middleware) Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.Server.EnableCompression ||
			c.Request.Method == http.MethodHead ||
			!acceptsBrotli(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "br")
		c.Writer.Header().Add("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			writer:         brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		c.Writer = bw
		defer func() {
			if !bw.wrote {
				bw.Header().Del("Content-Encoding")
				return
			}
			_ = bw.writer.Close()
		}()

		c.Next()
	}
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		token := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(token, "br") {
			return true
		}
	}
	return false
}
