package core

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzhttp"
)

// GetOutboundIP returns the preferred outbound IP address of this machine.
// It establishes a UDP connection to 8.8.8.8 to determine the local IP.
func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}

// ReadUserIP extracts the client IP address from an HTTP request.
// It checks X-Real-Ip, then the first hop of X-Forwarded-For, and falls back to RemoteAddr.
func ReadUserIP(r *http.Request) string {
	IPAddress := r.Header.Get("X-Real-Ip")
	if IPAddress == "" {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			IPAddress = strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}
	}
	if IPAddress == "" {
		IPAddress = r.RemoteAddr
	}
	return IPAddress
}

// SecurityHeaders adds standard HTTP security headers to all responses.
// Nothing served by this app is meant to be rendered as a page, so the CSP denies everything.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'; base-uri 'none'")

		next.ServeHTTP(w, r)
	})
}

var gzipWrapper = sync.OnceValue(func() func(http.Handler) http.HandlerFunc {
	wrapper, err := gzhttp.NewWrapper(gzhttp.ContentTypeFilter(compressibleContentType))
	if err != nil {
		panic(err)
	}
	return wrapper
})

// GzipHandler compresses text & JSON responses for clients that accept it.
// Image bodies other than SVG are already compressed, and are passed through untouched.
func GzipHandler(next http.Handler) http.Handler {
	return gzipWrapper()(next)
}

func compressibleContentType(ct string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(ct))
	if strings.HasPrefix(mediaType, "image/") && !strings.HasPrefix(mediaType, "image/svg") {
		return false
	}
	return gzhttp.DefaultContentTypeFilter(ct)
}
