package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuth защищает админку. passHash bcrypt-хэш пароля из конфига.
func BasicAuth(username, passHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				requireAuth(w)
				return
			}

			if !strings.HasPrefix(authHeader, "Basic ") {
				requireAuth(w)
				return
			}

			creds, err := base64.StdEncoding.DecodeString(authHeader[6:])
			if err != nil {
				requireAuth(w)
				return
			}

			credPair := strings.SplitN(string(creds), ":", 2)
			if len(credPair) != 2 {
				requireAuth(w)
				return
			}

			if subtle.ConstantTimeCompare([]byte(credPair[0]), []byte(username)) != 1 {
				requireAuth(w)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(passHash), []byte(credPair[1])); err != nil {
				requireAuth(w)
				return
			}

			// админка проходит и проверки capability
			ctx := WithPrincipal(r.Context(), Principal{Role: RoleAdmin, Login: credPair[0]})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Admin Area"`)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", "តម្រូវឱ្យផ្ទៀងផ្ទាត់អត្តសញ្ញាណ")
}
