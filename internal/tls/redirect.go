package tls

import (
	"net"
	"net/http"

	"todo-web/internal/logging"
)

// HTTPSRedirectHandler redirects every plain HTTP request to the same URL on
// the HTTPS port. Form posts get a 308 so the method and body survive.
func HTTPSRedirectHandler(httpsPort string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if httpsPort != "443" {
			host = net.JoinHostPort(host, httpsPort)
		}
		target := "https://" + host + r.URL.RequestURI()

		status := http.StatusMovedPermanently
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			status = http.StatusPermanentRedirect
		}

		logging.Logger.WithFields(map[string]interface{}{
			"client_ip": r.RemoteAddr,
			"https_url": target,
			"method":    r.Method,
		}).Debug("HTTP to HTTPS redirect")

		http.Redirect(w, r, target, status)
	})
}
