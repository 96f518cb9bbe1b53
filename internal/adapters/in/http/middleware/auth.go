// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"weaponledger/internal/platform/logging"
)

// HeaderWallet は dev mode（AUTH_MODE=header）で caller の wallet を渡すヘッダです。
const HeaderWallet = "X-Wallet-Address"

// WalletClaim は Firebase custom claim の key です。無ければ uid を wallet として扱います。
const WalletClaim = "wallet"

// TokenVerifier は *fbauth.Client が満たします。
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

var _ TokenVerifier = (*fbauth.Client)(nil)

// Identity は caller の wallet を context に詰めます。
//   - Verifier あり: Authorization: Bearer <ID_TOKEN> を検証（不正なら 401）
//   - Verifier なし: X-Wallet-Address をそのまま信用する
//
// 認証情報が無いリクエストはそのまま通し、caller が必要なハンドラ側で 401 にします。
type Identity struct {
	Verifier TokenVerifier
}

func (m *Identity) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.Verifier == nil {
			if wallet := strings.TrimSpace(r.Header.Get(HeaderWallet)); wallet != "" {
				r = r.WithContext(WithWallet(r.Context(), wallet))
			}
			next.ServeHTTP(w, r)
			return
		}

		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			unauthorized(w, "empty bearer token")
			return
		}

		// Firebase ID トークン検証
		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			zap.S().Warnf("[auth] invalid token path=%s reqId=%s: %v", r.URL.Path, RequestIDFrom(r.Context()), err)
			unauthorized(w, "invalid token")
			return
		}

		wallet := walletFromToken(token)
		if wallet == "" {
			unauthorized(w, "token has no wallet")
			return
		}
		zap.S().Debugf("[auth] path=%s uid=%s wallet=%s", r.URL.Path, logging.MaskShort(token.UID), logging.MaskShort(wallet))

		next.ServeHTTP(w, r.WithContext(WithWallet(r.Context(), wallet)))
	})
}

func walletFromToken(token *fbauth.Token) string {
	if token == nil {
		return ""
	}
	if raw, ok := token.Claims[WalletClaim]; ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(token.UID)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated", "message": msg})
}

func WithWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, ctxKeyWallet, wallet)
}

// CurrentWallet は現在の caller の wallet を返します。
func CurrentWallet(r *http.Request) (string, bool) {
	v, ok := r.Context().Value(ctxKeyWallet).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
